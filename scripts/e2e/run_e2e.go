// Package main runs end-to-end smoke tests against a deployed Knitec IQ
// instance.
//
// Scenarios cover:
//   - Health endpoint
//   - Login, bad credentials, and identity round-trip
//   - Intake validation (per-field errors, one pass, form order)
//   - Intake acceptance and the hand-off into a chat session
//   - A full chat turn against the live model provider
//   - Session listing with derived titles
//
// The chat-turn scenario talks to the real model provider, so the target
// instance needs a working OPENAI_API_KEY (or Gemini fallback).
//
// Usage:
//
//	API_BASE_URL=... E2E_USERNAME=... E2E_PASSWORD=... go run scripts/e2e/run_e2e.go            # runs all
//	API_BASE_URL=... E2E_USERNAME=... E2E_PASSWORD=... go run scripts/e2e/run_e2e.go chat-turn  # runs one
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Globals
// ---------------------------------------------------------------------------

var (
	apiBase  string
	username string
	password string
	token    string

	httpClient = &http.Client{Timeout: 60 * time.Second}
)

// ---------------------------------------------------------------------------
// Scenario definition
// ---------------------------------------------------------------------------

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// call sends a JSON request and decodes the JSON response into a generic map.
// Non-JSON bodies come back under the "_raw" key.
func call(method, path, authToken string, payload interface{}) (int, map[string]interface{}, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = map[string]interface{}{"_raw": string(raw)}
	}
	return resp.StatusCode, decoded, nil
}

func login(user, pass string) (string, int, error) {
	status, body, err := call("POST", "/auth/login", "", map[string]string{
		"username": user,
		"password": pass,
	})
	if err != nil {
		return "", 0, err
	}
	tok, _ := body["token"].(string)
	return tok, status, nil
}

func getList(m map[string]interface{}, key string) []map[string]interface{} {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, item := range raw {
		if mm, ok := item.(map[string]interface{}); ok {
			out = append(out, mm)
		}
	}
	return out
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// validIntake returns a submission that passes every field rule.
func validIntake() map[string]string {
	return map[string]string{
		"name":    "Test Runner",
		"address": fmt.Sprintf("%d Smoke Test Ln", time.Now().Unix()%10000),
		"city":    "Seattle",
		"state":   "wa",
		"zip":     "98101",
		"contact": "runner@example.com",
	}
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func scenarioHealth(t *T) {
	status, body, err := call("GET", "/health", "", nil)
	if err != nil {
		t.fatalf("health request: %v", err)
		return
	}
	t.check("health returns 200", status == http.StatusOK)
	t.check("health reports ok", str(body, "status") == "ok")
}

func scenarioLogin(t *T) {
	_, status, err := login(username, "definitely-not-the-password")
	if err != nil {
		t.fatalf("login request: %v", err)
		return
	}
	t.check("wrong password rejected with 401", status == http.StatusUnauthorized)

	tok, status, err := login(username, password)
	if err != nil {
		t.fatalf("login request: %v", err)
		return
	}
	t.check("login succeeds", status == http.StatusOK)
	t.check("login returns a token", tok != "")

	status, body, err := call("GET", "/auth/me", tok, nil)
	if err != nil {
		t.fatalf("auth/me request: %v", err)
		return
	}
	t.check("auth/me returns 200", status == http.StatusOK)
	t.check("auth/me echoes the username", str(body, "username") == username)

	status, _, err = call("GET", "/auth/me", "", nil)
	if err != nil {
		t.fatalf("auth/me request: %v", err)
		return
	}
	t.check("auth/me without a token is 401", status == http.StatusUnauthorized)
}

func scenarioIntakeValidation(t *T) {
	status, _, err := call("POST", "/intake", "", validIntake())
	if err != nil {
		t.fatalf("unauthenticated intake: %v", err)
		return
	}
	t.check("unauthenticated intake is 401", status == http.StatusUnauthorized)

	bad := map[string]string{
		"name":    "",
		"address": "123 Main St",
		"city":    "Seattle",
		"state":   "california",
		"zip":     "1234",
		"contact": "notanemail",
	}
	status, body, err := call("POST", "/intake", token, bad)
	if err != nil {
		t.fatalf("intake request: %v", err)
		return
	}
	t.check("invalid submission is 422", status == http.StatusUnprocessableEntity)

	errs := getList(body, "errors")
	t.check("every failing field reported", len(errs) == 4)
	if len(errs) == 4 {
		t.check("errors arrive in form order", str(errs[0], "field") == "name" &&
			str(errs[1], "field") == "state" &&
			str(errs[2], "field") == "zip" &&
			str(errs[3], "field") == "contact")
		t.check("state error names the rule", strings.Contains(str(errs[1], "message"), "2-letter"))
	}
}

func scenarioIntakeToChat(t *T) {
	status, body, err := call("POST", "/intake", token, validIntake())
	if err != nil {
		t.fatalf("intake request: %v", err)
		return
	}
	t.check("valid submission is 201", status == http.StatusCreated)

	record, _ := body["record"].(map[string]interface{})
	t.check("record echoed back", record != nil)
	if record != nil {
		t.check("state normalized to upper case", str(record, "state") == "WA")
		t.check("contact classified as email", str(record, "contact_kind") == "email")
	}

	chatSession := str(body, "chat_session_id")
	t.check("chat session opened", strings.HasPrefix(chatSession, username+"_"))
}

func scenarioChatTurn(t *T) {
	status, body, err := call("POST", "/chat/sessions", token, nil)
	if err != nil {
		t.fatalf("start session: %v", err)
		return
	}
	if status != http.StatusCreated {
		t.fatalf("start session returned %d", status)
		return
	}
	sessionID := str(body, "session_id")
	t.check("session id minted for user", strings.HasPrefix(sessionID, username+"_"))
	t.check("greeting present", strings.Contains(str(body, "greeting"), "Knitec IQ"))

	status, body, err = call("POST", "/chat/message", token, map[string]string{
		"session_id": sessionID,
		"text":       "Hi, I'm ready to start the installation questionnaire.",
	})
	if err != nil {
		t.fatalf("send message: %v", err)
		return
	}
	t.check("turn succeeds against live model", status == http.StatusOK)
	t.check("assistant reply is not empty", strings.TrimSpace(str(body, "message")) != "")

	status, body, err = call("GET", "/chat/history?session="+sessionID, token, nil)
	if err != nil {
		t.fatalf("history request: %v", err)
		return
	}
	t.check("history returns 200", status == http.StatusOK)

	msgs := getList(body, "messages")
	t.check("history holds both turns", len(msgs) == 2)
	if len(msgs) == 2 {
		t.check("user message first", str(msgs[0], "role") == "user")
		t.check("assistant message second", str(msgs[1], "role") == "assistant")
	}
}

func scenarioSessionList(t *T) {
	status, body, err := call("POST", "/chat/sessions", token, nil)
	if err != nil || status != http.StatusCreated {
		t.fatalf("start session: status=%d err=%v", status, err)
		return
	}
	sessionID := str(body, "session_id")

	firstMessage := "Planning a camera install for the warehouse"
	status, _, err = call("POST", "/chat/message", token, map[string]string{
		"session_id": sessionID,
		"text":       firstMessage,
	})
	if err != nil || status != http.StatusOK {
		t.fatalf("send message: status=%d err=%v", status, err)
		return
	}

	status, body, err = call("GET", "/chat/sessions", token, nil)
	if err != nil {
		t.fatalf("list sessions: %v", err)
		return
	}
	t.check("session list returns 200", status == http.StatusOK)

	var found map[string]interface{}
	for _, s := range getList(body, "sessions") {
		if str(s, "id") == sessionID {
			found = s
			break
		}
	}
	t.check("new session listed", found != nil)
	if found != nil {
		t.check("title derived from first message", str(found, "title") == firstMessage)
		count, _ := found["message_count"].(float64)
		t.check("message count covers both turns", count == 2)
	}
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	username = os.Getenv("E2E_USERNAME")
	password = os.Getenv("E2E_PASSWORD")
	if apiBase == "" || username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL, E2E_USERNAME, and E2E_PASSWORD required")
		os.Exit(1)
	}

	var err error
	token, _, err = login(username, password)
	if err != nil || token == "" {
		fmt.Fprintf(os.Stderr, "ERROR: initial login failed: %v\n", err)
		os.Exit(1)
	}

	scenarios := []scenario{
		{"health", scenarioHealth},
		{"login", scenarioLogin},
		{"intake-validation", scenarioIntakeValidation},
		{"intake-to-chat", scenarioIntakeToChat},
		{"chat-turn", scenarioChatTurn},
		{"session-list", scenarioSessionList},
	}

	// Filter by name if argument provided
	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
