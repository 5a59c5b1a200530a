package e2e

import (
	"github.com/cucumber/godog"

	"clientele/e2e/steps/clients"
	"clientele/e2e/steps/common"
	"clientele/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register client management steps
	clients.RegisterSteps(ctx, tc)

	// Register rate limit header assertions
	ratelimit.RegisterSteps(ctx, tc)
}
