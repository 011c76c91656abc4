package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/hotelbridge/internal/api/handlers"
	"github.com/yoockh/hotelbridge/internal/cache"
	"github.com/yoockh/hotelbridge/internal/models"
	"github.com/yoockh/hotelbridge/internal/providers/agent"
	"github.com/yoockh/hotelbridge/internal/repositories/sqlstore"
	"github.com/yoockh/hotelbridge/internal/services"
	"github.com/yoockh/hotelbridge/internal/workers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine *gin.Engine
	asked  []string
}

// newTestEnv wires the full stack against an agent that answers with reply.
// An empty agentURL leaves the agent unconfigured.
func newTestEnv(t *testing.T, agentURL, secret string) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Record{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	a := agent.NewHTTPAgent(agent.Config{EndpointURL: agentURL, Timeout: 2 * time.Second}, log)
	slides := services.NewSlideService(cache.NewSlideStore(cache.NewMemoryCache()), workers.NewMemoryNotifier(), log)
	br := services.NewBridgeService(a, slides, log)
	records := services.NewRecordService(sqlstore.NewRecordRepo(db), log)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Webhook:       handlers.NewWebhookHandler(br, slides, log),
		Slides:        handlers.NewSlideHandler(slides, log),
		Records:       handlers.NewRecordHandler(records),
		Twilio:        handlers.NewTwilioHandler(br, TwilioVoicePath, log),
		WebhookSecret: secret,
	})
	return &testEnv{engine: r}
}

// agentServer answers every request with reply and records the utterances.
func agentServer(t *testing.T, env **testEnv, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserInput string `json:"userInput"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if *env != nil {
			(*env).asked = append((*env).asked, body.UserInput)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (e *testEnv) do(method, path, contentType, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func assertJSON(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, want string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, wantStatus, w.Body.String())
	}
	var got, exp any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not JSON: %s", w.Body.String())
	}
	if err := json.Unmarshal([]byte(want), &exp); err != nil {
		t.Fatalf("bad expectation: %v", err)
	}
	gb, _ := json.Marshal(got)
	eb, _ := json.Marshal(exp)
	if !bytes.Equal(gb, eb) {
		t.Errorf("body = %s, want %s", gb, eb)
	}
}

const jsonCT = "application/json"

func TestWebhook_VapiToolCall(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"content":[{"text":{"value":"We support JIRA and Slack."}}]}`)
	env = newTestEnv(t, srv.URL, "")

	w := env.do(http.MethodPost, "/api/vapi/webhook", jsonCT,
		`{"message":{"toolCalls":[{"id":"tc1","function":{"arguments":{"message":"What integrations exist?"}}}]}}`)
	assertJSON(t, w, http.StatusOK, `{"results":[{"toolCallId":"tc1","result":"We support JIRA and Slack."}]}`)

	if len(env.asked) != 1 || env.asked[0] != "What integrations exist?" {
		t.Errorf("agent asked %v", env.asked)
	}
}

func TestWebhook_ElevenLabsToolCall(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"response":"Hello!"}`)
	env = newTestEnv(t, srv.URL, "")

	w := env.do(http.MethodPost, "/api/elevenlabs/webhook", jsonCT,
		`{"tool_name":"query_integration_expert","parameters":{"message":"hi"}}`)
	assertJSON(t, w, http.StatusOK, `{"result":"Hello!"}`)
}

func TestWebhook_MissingMessage(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"response":"unused"}`)
	env = newTestEnv(t, srv.URL, "")

	w := env.do(http.MethodPost, "/api/vapi/webhook", jsonCT,
		`{"message":{"toolCalls":[{"id":"tc2","function":{"arguments":{}}}]}}`)
	assertJSON(t, w, http.StatusBadRequest, `{"error":"No message provided"}`)

	if len(env.asked) != 0 {
		t.Errorf("agent should not be called, asked %v", env.asked)
	}
}

func TestWebhook_AgentNotConfigured(t *testing.T) {
	env := newTestEnv(t, "", "")

	w := env.do(http.MethodPost, "/api/elevenlabs/webhook", jsonCT,
		`{"tool_name":"query_integration_expert","parameters":{"message":"hi"}}`)
	assertJSON(t, w, http.StatusOK, `{"result":"Sorry, the AI agent is not configured properly."}`)

	w = env.do(http.MethodPost, "/api/vapi/webhook", jsonCT,
		`{"message":{"type":"function-call","functionCall":{"id":"fc1","name":"query_integration_expert","parameters":{"message":"hi"}}}}`)
	assertJSON(t, w, http.StatusOK, `{"results":[{"toolCallId":"fc1","result":"Sorry, the AI agent is not configured properly."}]}`)
}

func TestWebhook_Unrecognized(t *testing.T) {
	env := newTestEnv(t, "", "")

	for _, body := range []string{`{"foo":"bar"}`, `[1,2]`, `{not json`, ``} {
		w := env.do(http.MethodPost, "/api/integration-expert", jsonCT, body)
		assertJSON(t, w, http.StatusOK, `{"status":"received"}`)
	}
}

func TestWebhook_AgentFailure(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusInternalServerError, `{"error":"boom"}`)
	env = newTestEnv(t, srv.URL, "")

	w := env.do(http.MethodPost, "/api/elevenlabs/webhook", jsonCT,
		`{"tool_name":"query_integration_expert","parameters":{"message":"hi"}}`)
	assertJSON(t, w, http.StatusInternalServerError,
		`{"error":"Internal server error","result":"Sorry, something went wrong."}`)

	w = env.do(http.MethodPost, "/api/vapi/webhook", jsonCT,
		`{"message":{"toolCalls":[{"id":"tc3","function":{"arguments":{"message":"hi"}}}]}}`)
	assertJSON(t, w, http.StatusInternalServerError,
		`{"error":"Internal server error","results":[{"toolCallId":"tc3","result":"Sorry, something went wrong."}]}`)
}

func TestWebhook_UnknownReplyShape(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"answer":42}`)
	env = newTestEnv(t, srv.URL, "")

	w := env.do(http.MethodPost, "/api/elevenlabs/webhook", jsonCT,
		`{"tool_name":"query_integration_expert","parameters":{"message":"hi"}}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"result"`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestWebhook_FormBody(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"response":"From form"}`)
	env = newTestEnv(t, srv.URL, "")

	form := url.Values{"tool_name": {"query_integration_expert"}, "message": {"hello there"}}
	w := env.do(http.MethodPost, "/api/elevenlabs/webhook", "application/x-www-form-urlencoded", form.Encode())
	assertJSON(t, w, http.StatusOK, `{"result":"From form"}`)

	if len(env.asked) != 1 || env.asked[0] != "hello there" {
		t.Errorf("agent asked %v", env.asked)
	}
}

func TestWebhook_Secret(t *testing.T) {
	env := newTestEnv(t, "", "s3cret")

	w := env.do(http.MethodPost, "/api/integration-expert", jsonCT, `{"foo":"bar"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	w = env.do(http.MethodPost, "/api/integration-expert", jsonCT, `{"foo":"bar"}`, "X-Vapi-Secret", "s3cret")
	assertJSON(t, w, http.StatusOK, `{"status":"received"}`)
}

func TestSlides_DefaultAndRoundTrip(t *testing.T) {
	env := newTestEnv(t, "", "")

	w := env.do(http.MethodGet, "/api/slide-update", "", "")
	var def models.Slide
	if err := json.Unmarshal(w.Body.Bytes(), &def); err != nil || w.Code != http.StatusOK {
		t.Fatalf("GET default: %d %s", w.Code, w.Body.String())
	}
	if def.SlideIndex != 0 || def.Topic != "Welcome" || def.Content != "Welcome to the presentation" || def.Timestamp == 0 {
		t.Errorf("default = %+v", def)
	}

	w = env.do(http.MethodPost, "/api/slide-update", jsonCT,
		`{"message":{"toolCalls":[{"id":"s1","function":{"name":"update_slide","arguments":"{\"slideIndex\":2,\"topic\":\"Amenities\",\"content\":\"Pool and spa\"}"}}]}}`)
	assertJSON(t, w, http.StatusOK, `{"results":[{"toolCallId":"s1","result":"Slide updated to 2: Amenities"}]}`)

	w = env.do(http.MethodPost, "/api/slide-update", jsonCT,
		`{"tool_name":"update_slide","parameters":{"slideIndex":5,"topic":"Dining","sessionId":"demo"}}`)
	assertJSON(t, w, http.StatusOK, `{"result":"Slide updated to 5: Dining"}`)

	var cur models.Slide
	w = env.do(http.MethodGet, "/api/slide-update", "", "")
	_ = json.Unmarshal(w.Body.Bytes(), &cur)
	if cur.SlideIndex != 2 || cur.Topic != "Amenities" || cur.Content != "Pool and spa" {
		t.Errorf("default session = %+v", cur)
	}
	w = env.do(http.MethodGet, "/api/slide-update?sessionId=demo", "", "")
	_ = json.Unmarshal(w.Body.Bytes(), &cur)
	if cur.SlideIndex != 5 || cur.Topic != "Dining" {
		t.Errorf("demo session = %+v", cur)
	}

	w = env.do(http.MethodPost, "/api/slide-update", jsonCT, `{"tool_name":"update_slide","parameters":{"topic":"x"}}`)
	assertJSON(t, w, http.StatusBadRequest, `{"error":"slideIndex is required"}`)
}

func TestSlides_GenericBody(t *testing.T) {
	env := newTestEnv(t, "", "")

	w := env.do(http.MethodPost, "/api/slide-update", jsonCT, `{"slideIndex":1,"topic":"Rooms"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool         `json:"success"`
		Slide   models.Slide `json:"slide"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success || resp.Slide.Topic != "Rooms" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSlides_WebSocketPush(t *testing.T) {
	env := newTestEnv(t, "", "")
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/slide-update/ws?sessionId=live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first models.Slide
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial slide: %v", err)
	}
	if first.SessionID != "live" || first.Topic != "Welcome" {
		t.Errorf("initial = %+v", first)
	}

	body := `{"tool_name":"update_slide","parameters":{"slideIndex":7,"topic":"Checkout","sessionId":"live"}}`
	resp, err := http.Post(srv.URL+"/api/slide-update", jsonCT, strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	var pushed models.Slide
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed slide: %v", err)
	}
	if pushed.SlideIndex != 7 || pushed.Topic != "Checkout" {
		t.Errorf("pushed = %+v", pushed)
	}
}

func TestRecords_CRUD(t *testing.T) {
	env := newTestEnv(t, "", "")

	w := env.do(http.MethodPost, "/api/hotel/reservations", jsonCT, `{"guest":"Ada","nights":3}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", created)
	}

	w = env.do(http.MethodGet, "/api/hotel/reservations/"+id, "", "")
	assertJSON(t, w, http.StatusOK, `{"guest":"Ada","id":"`+id+`","nights":3}`)

	w = env.do(http.MethodPut, "/api/hotel/reservations/"+id, jsonCT, `{"guest":"Ada","nights":4}`)
	assertJSON(t, w, http.StatusOK, `{"guest":"Ada","id":"`+id+`","nights":4}`)

	w = env.do(http.MethodGet, "/api/hotel/reservations", "", "")
	assertJSON(t, w, http.StatusOK, `[{"guest":"Ada","id":"`+id+`","nights":4}]`)

	w = env.do(http.MethodDelete, "/api/hotel/reservations/"+id, "", "")
	assertJSON(t, w, http.StatusOK, `{"success":true}`)

	w = env.do(http.MethodGet, "/api/hotel/reservations/"+id, "", "")
	assertJSON(t, w, http.StatusNotFound, `{"code":"NOT_FOUND","message":"record not found"}`)

	w = env.do(http.MethodGet, "/api/hotel/unicorns", "", "")
	assertJSON(t, w, http.StatusNotFound, `{"code":"NOT_FOUND","message":"unknown record kind"}`)

	w = env.do(http.MethodPost, "/api/hotel/guests", jsonCT, `[1,2]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("array body: %d", w.Code)
	}
}

func TestTwilio_Voice(t *testing.T) {
	var env *testEnv
	srv := agentServer(t, &env, http.StatusOK, `{"response":"Checkout is at 11 & late checkout costs extra."}`)
	env = newTestEnv(t, srv.URL, "")

	form := "application/x-www-form-urlencoded"

	w := env.do(http.MethodPost, TwilioVoicePath, form, url.Values{"CallSid": {"CA1"}}.Encode())
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/xml") {
		t.Fatalf("greeting: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `<Gather input="speech" action="/api/twilio/voice"`) {
		t.Errorf("greeting twiml = %s", w.Body.String())
	}

	w = env.do(http.MethodPost, TwilioVoicePath, form, url.Values{"SpeechResult": {"when is checkout"}}.Encode())
	if w.Code != http.StatusOK {
		t.Fatalf("turn: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Checkout is at 11 &amp; late checkout costs extra.</Say>") {
		t.Errorf("turn twiml = %s", w.Body.String())
	}
	if len(env.asked) != 1 || env.asked[0] != "when is checkout" {
		t.Errorf("agent asked %v", env.asked)
	}
}

func TestTwilio_NotConfigured(t *testing.T) {
	env := newTestEnv(t, "", "")

	w := env.do(http.MethodPost, TwilioVoicePath, "application/x-www-form-urlencoded",
		url.Values{"SpeechResult": {"hi"}}.Encode())
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "not configured properly") {
		t.Errorf("twiml = %d %s", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "", "")
	assertJSON(t, env.do(http.MethodGet, "/ping", "", ""), http.StatusOK, `{"message":"pong"}`)
	assertJSON(t, env.do(http.MethodGet, "/health", "", ""), http.StatusOK, `{"status":"ok"}`)
}
