// Package generator calls the external language-model agents that draft
// clarifying questions, research assignments and PRDs.
//
// Each agent is a JSON-over-HTTP endpoint. The payload may be wrapped in an
// envelope; a per-kind JSONPath expression selects it. Every failure mode
// (transport, non-2xx, invalid JSON, unexpected shape, timeout) surfaces as an
// UPSTREAM_ERROR.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"

	"github.com/hackcrew/service_layer/internal/app/domain/ideation"
	"github.com/hackcrew/service_layer/internal/app/domain/research"
	"github.com/hackcrew/service_layer/internal/app/metrics"
	svcerrors "github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/httputil"
	"github.com/hackcrew/service_layer/internal/logging"
)

// Kinds label metrics and log lines.
const (
	KindQuestions   = "qna"
	KindAssignments = "research"
	KindPRD         = "prd"
)

const maxResponseBytes = 4 << 20

// Config configures the agent endpoints.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	QuestionsPath     string
	AssignmentsPath   string
	PRDPath           string
	QuestionsResult   string
	AssignmentsResult string
	PRDResult         string
	HTTPClient        *http.Client
}

// TeamMember is one entry of the research assignment request.
type TeamMember struct {
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Skills []string `json:"skills"`
}

// Client talks to the agents.
type Client struct {
	http    *httputil.ServiceClient
	cfg     Config
	timeout time.Duration
	log     *logging.Logger
}

// New creates a Client. A zero Timeout means 90s.
func New(cfg Config, log *logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if log == nil {
		log = logging.NewDefault("generator")
	}
	return &Client{
		http: httputil.NewServiceClient(httputil.ServiceClientConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
		}),
		cfg:     cfg,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// GenerateQuestions asks the questions agent for clarifying questions about
// statement. Items without a question come back as empty strings; callers
// decide whether to keep them.
func (c *Client) GenerateQuestions(ctx context.Context, statement string) ([]string, error) {
	result, err := c.call(ctx, KindQuestions, c.cfg.QuestionsPath, c.cfg.QuestionsResult, map[string]interface{}{
		"problem_statement": statement,
	})
	if err != nil {
		return nil, err
	}

	list := result
	if result.IsObject() {
		list = result.Get("questions")
	}
	if !list.IsArray() {
		return nil, malformed(KindQuestions, "expected a list of questions")
	}

	var questions []string
	for _, item := range list.Array() {
		switch {
		case item.IsObject():
			questions = append(questions, strings.TrimSpace(item.Get("question").String()))
		case item.Type == gjson.String:
			questions = append(questions, strings.TrimSpace(item.String()))
		default:
			return nil, malformed(KindQuestions, "question items must be objects or strings")
		}
	}
	return questions, nil
}

// AssignResearch asks the assignment agent to split research topics across
// team. Topics are returned in emission order.
func (c *Client) AssignResearch(ctx context.Context, team []TeamMember, statement string) ([]research.Topic, error) {
	if team == nil {
		team = []TeamMember{}
	}
	result, err := c.call(ctx, KindAssignments, c.cfg.AssignmentsPath, c.cfg.AssignmentsResult, map[string]interface{}{
		"team":              team,
		"problem_statement": statement,
	})
	if err != nil {
		return nil, err
	}

	list := result
	if result.IsObject() {
		list = result.Get("assignments")
	}
	if !list.IsArray() {
		return nil, malformed(KindAssignments, "expected an assignments list")
	}

	topics := make([]research.Topic, 0, len(list.Array()))
	for _, item := range list.Array() {
		if !item.IsObject() {
			return nil, malformed(KindAssignments, "assignment items must be objects")
		}
		topic, assignee := item.Get("topic"), item.Get("assigned_to")
		if topic.Type != gjson.String || assignee.Type != gjson.String {
			return nil, malformed(KindAssignments, "assignment items need topic and assigned_to strings")
		}
		topics = append(topics, research.Topic{
			Topic:         topic.String(),
			AssignedTo:    assignee.String(),
			Justification: item.Get("justification").String(),
		})
	}
	return topics, nil
}

// DraftPRD asks the PRD agent for a product requirements document.
func (c *Client) DraftPRD(ctx context.Context, statement, pitch string, qna []ideation.QnA) (string, error) {
	if qna == nil {
		qna = []ideation.QnA{}
	}
	result, err := c.call(ctx, KindPRD, c.cfg.PRDPath, c.cfg.PRDResult, map[string]interface{}{
		"problem_statement": statement,
		"pitch":             pitch,
		"qna":               qna,
	})
	if err != nil {
		return "", err
	}

	text := result
	if result.IsObject() {
		text = result.Get("prd")
	}
	if text.Type != gjson.String || strings.TrimSpace(text.String()) == "" {
		return "", malformed(KindPRD, "expected PRD text")
	}
	return text.String(), nil
}

// call posts body to path and returns the value selected by resultPath.
func (c *Client) call(ctx context.Context, kind, path, resultPath string, body interface{}) (result gjson.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.RecordGeneratorCall(kind, time.Since(start), err == nil)
		if err != nil {
			c.log.WithContext(ctx).WithError(err).WithField("kind", kind).Warn("generator call failed")
		}
	}()

	resp, err := c.http.Post(ctx, path, body)
	if err != nil {
		return gjson.Result{}, svcerrors.Upstream(fmt.Sprintf("%s generator unavailable", kind), err)
	}
	raw, err := httputil.ReadResponse(resp, maxResponseBytes)
	if err != nil {
		return gjson.Result{}, svcerrors.Upstream(fmt.Sprintf("%s generator failed", kind), err)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, malformed(kind, "response is not valid JSON")
	}

	selected, err := selectResult(raw, resultPath)
	if err != nil {
		return gjson.Result{}, svcerrors.Upstream(fmt.Sprintf("%s generator returned an unexpected envelope", kind), err)
	}
	return selected, nil
}

// selectResult applies a JSONPath expression. "" and "$" select the whole
// document.
func selectResult(raw []byte, path string) (gjson.Result, error) {
	if path == "" || path == "$" {
		return gjson.ParseBytes(raw), nil
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return gjson.Result{}, err
	}
	value, err := jsonpath.Get(path, doc)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("jsonpath %s: %w", path, err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(encoded), nil
}

func malformed(kind, reason string) error {
	return svcerrors.Upstream(fmt.Sprintf("%s generator returned malformed output", kind), fmt.Errorf("%s", reason))
}
