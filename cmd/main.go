package main

import (
	"github.com/health-monitor/cmd/agent"
)

func main() {
	agent.Execute()
}
