package clients

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"

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
	Remember(name, value string)
	Recall(name string) string
}

const clientsPath = "/internal/client"

// RegisterSteps registers client management step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &clientSteps{tc: tc}

	ctx.Step(`^I register a client named "([^"]*)" with phone "([^"]*)"$`, steps.registerWithPhone)
	ctx.Step(`^I register a client named "([^"]*)" with document "([^"]*)"$`, steps.registerWithDocument)
	ctx.Step(`^I register a client named "([^"]*)" with a fresh document$`, steps.registerWithFreshDocument)
	ctx.Step(`^I register a client named "([^"]*)" with the same document$`, steps.registerWithSameDocument)
	ctx.Step(`^I fetch the registered client$`, steps.fetchRegistered)
	ctx.Step(`^I delete the registered client$`, steps.deleteRegistered)
	ctx.Step(`^I update the registered client with body:$`, steps.updateRegistered)
	ctx.Step(`^I update client "([^"]*)" with body:$`, steps.updateByID)
	ctx.Step(`^I list "([^"]*)" clients on page (\d+) with page size (\d+)$`, steps.list)
	ctx.Step(`^the list should contain exactly (\d+) items?$`, steps.listShouldContain)
	ctx.Step(`^the list total should be at least (\d+)$`, steps.listTotalAtLeast)
}

type clientSteps struct {
	tc TestContext
}

func (s *clientSteps) registerWithPhone(ctx context.Context, name, phone string) error {
	return s.register(map[string]any{"full_name": name, "primary_phone": phone})
}

func (s *clientSteps) registerWithDocument(ctx context.Context, name, document string) error {
	return s.register(map[string]any{"full_name": name, "primary_phone": "11988887777", "document": document})
}

func (s *clientSteps) registerWithFreshDocument(ctx context.Context, name string) error {
	document := freshDocument()
	s.tc.Remember("document", document)
	return s.registerWithDocument(ctx, name, document)
}

func (s *clientSteps) registerWithSameDocument(ctx context.Context, name string) error {
	document := s.tc.Recall("document")
	if document == "" {
		return fmt.Errorf("no document registered earlier in this scenario")
	}
	return s.registerWithDocument(ctx, name, document)
}

func (s *clientSteps) register(body map[string]any) error {
	if err := s.tc.POST(s.tc.APIPath(clientsPath), body); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}
	clientID, err := s.tc.GetResponseField("data.id")
	if err != nil {
		return err
	}
	s.tc.Remember("id", fmt.Sprint(clientID))
	return nil
}

func (s *clientSteps) registeredPath() (string, error) {
	clientID := s.tc.Recall("id")
	if clientID == "" {
		return "", fmt.Errorf("no client registered earlier in this scenario")
	}
	return s.tc.APIPath(clientsPath + "/" + url.PathEscape(clientID)), nil
}

func (s *clientSteps) fetchRegistered(ctx context.Context) error {
	path, err := s.registeredPath()
	if err != nil {
		return err
	}
	return s.tc.GET(path)
}

func (s *clientSteps) deleteRegistered(ctx context.Context) error {
	path, err := s.registeredPath()
	if err != nil {
		return err
	}
	return s.tc.DELETE(path)
}

func (s *clientSteps) updateRegistered(ctx context.Context, body *godog.DocString) error {
	path, err := s.registeredPath()
	if err != nil {
		return err
	}
	return s.tc.PUT(path, body.Content)
}

func (s *clientSteps) updateByID(ctx context.Context, clientID string, body *godog.DocString) error {
	return s.tc.PUT(s.tc.APIPath(clientsPath+"/"+url.PathEscape(clientID)), body.Content)
}

func (s *clientSteps) list(ctx context.Context, status string, page, pageSize int) error {
	q := url.Values{}
	q.Set("status", status)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	return s.tc.GET(s.tc.APIPath(clientsPath) + "?" + q.Encode())
}

func (s *clientSteps) listShouldContain(ctx context.Context, expected int) error {
	items, err := s.tc.GetResponseField("data.items")
	if err != nil {
		return err
	}
	list, ok := items.([]any)
	if !ok {
		return fmt.Errorf("data.items is not a list: %v", items)
	}
	if len(list) != expected {
		return fmt.Errorf("expected %d items, got %d", expected, len(list))
	}
	return nil
}

func (s *clientSteps) listTotalAtLeast(ctx context.Context, minimum int) error {
	total, err := s.tc.GetResponseField("data.total")
	if err != nil {
		return err
	}
	n, ok := total.(float64)
	if !ok {
		return fmt.Errorf("data.total is not a number: %v", total)
	}
	if int(n) < minimum {
		return fmt.Errorf("expected total of at least %d, got %d", minimum, int(n))
	}
	return nil
}

// freshDocument returns an 11-digit number unlikely to collide with earlier
// runs against the same server. The leading 9 keeps it from being all zeros.
func freshDocument() string {
	return "9" + fmt.Sprintf("%010d", rand.Int64N(10_000_000_000))
}
