package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	APIPath(path string) string
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	DELETE(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Healthy() bool
}

// RegisterSteps registers background, request and assertion steps shared by
// every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the clientele API is running$`, steps.apiIsRunning)
	ctx.Step(`^I (GET|DELETE) "([^"]*)"$`, steps.requestWithoutBody)
	ctx.Step(`^I (POST|PUT) "([^"]*)" with body:$`, steps.requestWithBody)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should be successful$`, steps.responseSuccessful)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be null$`, steps.fieldShouldBeNull)
	ctx.Step(`^the error message should be "([^"]*)"$`, steps.errorMessageShouldBe)
	ctx.Step(`^the error details should mention "([^"]*)"$`, steps.errorDetailsShouldMention)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) apiIsRunning(ctx context.Context) error {
	if !s.tc.Healthy() {
		return fmt.Errorf("health check failed")
	}
	return nil
}

func (s *commonSteps) requestWithoutBody(ctx context.Context, method, path string) error {
	if method == "DELETE" {
		return s.tc.DELETE(s.tc.APIPath(path))
	}
	return s.tc.GET(s.tc.APIPath(path))
}

func (s *commonSteps) requestWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	if method == "PUT" {
		return s.tc.PUT(s.tc.APIPath(path), body.Content)
	}
	return s.tc.POST(s.tc.APIPath(path), body.Content)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseSuccessful(ctx context.Context) error {
	return s.fieldShouldBe(ctx, "success", "true")
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNull(ctx context.Context, field string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if value != nil {
		return fmt.Errorf("expected %s to be null, got %v", field, value)
	}
	return nil
}

func (s *commonSteps) errorMessageShouldBe(ctx context.Context, expected string) error {
	return s.fieldShouldBe(ctx, "error.message", expected)
}

func (s *commonSteps) errorDetailsShouldMention(ctx context.Context, field string) error {
	body := string(s.tc.GetLastResponseBody())
	if !strings.Contains(body, `"`+field+`"`) {
		return fmt.Errorf("expected error details to mention %q: %s", field, body)
	}
	return nil
}
