// Package gmailtest provides an in-memory Gmail API server for tests.
package gmailtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ModifyCall records one messages.modify request.
type ModifyCall struct {
	ID     string
	Add    []string
	Remove []string
}

// Server fakes the subset of the Gmail API that gmail-mcp uses.
type Server struct {
	*httptest.Server

	// RotateAttachmentIDs makes every full fetch issue new attachment ids
	// and invalidates the previous ones, as the real API may.
	RotateAttachmentIDs bool

	mu          sync.Mutex
	order       []string
	messages    map[string]*gmail.Message
	attachments map[string]map[string][]byte // message id -> part id -> data
	currentIDs  map[string]map[string]string // message id -> attachment id -> part id
	generation  int
	labels      []*gmail.Label
	profile     gmail.Profile
	modifies    []ModifyCall
	listQueries []string
	requests    []string
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		messages:    map[string]*gmail.Message{},
		attachments: map[string]map[string][]byte{},
		currentIDs:  map[string]map[string]string{},
		profile:     gmail.Profile{EmailAddress: "jane@example.com"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/profile", s.handleProfile)
	mux.HandleFunc("GET /gmail/v1/users/me/labels", s.handleLabels)
	mux.HandleFunc("GET /gmail/v1/users/me/messages", s.handleList)
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", s.handleGet)
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/modify", s.handleModify)
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}/attachments/{aid}", s.handleAttachment)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// ClientOptions point a Gmail service at the server.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// Endpoint returns only the endpoint option, for callers that bring their
// own authenticated HTTP client.
func (s *Server) Endpoint() option.ClientOption {
	return option.WithEndpoint(s.URL + "/")
}

// SetProfile replaces the mailbox profile.
func (s *Server) SetProfile(p gmail.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// AddLabel adds a label to the mailbox.
func (s *Server) AddLabel(id, name, typ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, &gmail.Label{Id: id, Name: name, Type: typ})
}

// AddMessage adds a message. Listing returns messages in insertion order.
func (s *Server) AddMessage(m *gmail.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Payload == nil {
		m.Payload = &gmail.MessagePart{MimeType: "text/plain"}
	}
	s.order = append(s.order, m.Id)
	s.messages[m.Id] = m
}

// AddAttachment appends an attachment part to message id.
func (s *Server) AddAttachment(id, filename, mimeType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.messages[id]
	partID := strconv.Itoa(len(m.Payload.Parts) + 1)
	m.Payload.Parts = append(m.Payload.Parts, &gmail.MessagePart{
		PartId:   partID,
		MimeType: mimeType,
		Filename: filename,
		Body:     &gmail.MessagePartBody{Size: int64(len(data))},
	})
	if s.attachments[id] == nil {
		s.attachments[id] = map[string][]byte{}
	}
	s.attachments[id][partID] = data
}

// Message returns the stored state of message id.
func (s *Server) Message(id string) *gmail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id]
}

// Modifies returns every modify call received.
func (s *Server) Modifies() []ModifyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.modifies)
}

// ListQueries returns the q parameter of every list call.
func (s *Server) ListQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.listQueries)
}

// Requests returns "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.profile)
}

func (s *Server) handleLabels(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, gmail.ListLabelsResponse{Labels: s.labels})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query().Get("q")
	s.listQueries = append(s.listQueries, q)

	limit := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("maxResults")); err == nil && v > 0 {
		limit = v
	}

	res := gmail.ListMessagesResponse{}
	for _, id := range s.order {
		m := s.messages[id]
		if !s.matches(m, q) {
			continue
		}
		if len(res.Messages) == limit {
			break
		}
		res.Messages = append(res.Messages, &gmail.Message{Id: m.Id, ThreadId: m.ThreadId})
	}
	res.ResultSizeEstimate = int64(len(res.Messages))
	writeJSON(w, res)
}

var categories = map[string]string{
	"primary":    "CATEGORY_PERSONAL",
	"social":     "CATEGORY_SOCIAL",
	"promotions": "CATEGORY_PROMOTIONS",
	"updates":    "CATEGORY_UPDATES",
	"forums":     "CATEGORY_FORUMS",
}

// matches understands is:unread, category: and label: terms and ignores
// everything else.
func (s *Server) matches(m *gmail.Message, q string) bool {
	for _, term := range strings.Fields(q) {
		switch {
		case term == "is:unread":
			if !slices.Contains(m.LabelIds, "UNREAD") {
				return false
			}
		case strings.HasPrefix(term, "category:"):
			if !slices.Contains(m.LabelIds, categories[strings.TrimPrefix(term, "category:")]) {
				return false
			}
		case strings.HasPrefix(term, "label:"):
			if !s.hasLabel(m, strings.Trim(strings.TrimPrefix(term, "label:"), `"`)) {
				return false
			}
		}
	}
	return true
}

func (s *Server) hasLabel(m *gmail.Message, name string) bool {
	for _, id := range m.LabelIds {
		if strings.EqualFold(id, name) {
			return true
		}
		for _, l := range s.labels {
			if l.Id == id && strings.EqualFold(l.Name, name) {
				return true
			}
		}
	}
	return false
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	m, ok := s.messages[id]
	if !ok {
		writeNotFound(w)
		return
	}

	out := cloneMessage(m)
	if r.URL.Query().Get("format") == "metadata" {
		wanted := r.URL.Query()["metadataHeaders"]
		var headers []*gmail.MessagePartHeader
		for _, h := range out.Payload.Headers {
			if len(wanted) == 0 || slices.ContainsFunc(wanted, func(n string) bool { return strings.EqualFold(n, h.Name) }) {
				headers = append(headers, h)
			}
		}
		out.Payload = &gmail.MessagePart{MimeType: out.Payload.MimeType, Headers: headers}
		writeJSON(w, out)
		return
	}

	s.assignAttachmentIDs(id, out.Payload)
	writeJSON(w, out)
}

// assignAttachmentIDs fills the attachment ids of a fetched copy.
func (s *Server) assignAttachmentIDs(id string, payload *gmail.MessagePart) {
	if s.RotateAttachmentIDs || s.currentIDs[id] == nil {
		s.generation++
		s.currentIDs[id] = map[string]string{}
	}
	byPart := map[string]string{}
	for aid, partID := range s.currentIDs[id] {
		byPart[partID] = aid
	}

	var walk func(*gmail.MessagePart)
	walk = func(p *gmail.MessagePart) {
		if _, ok := s.attachments[id][p.PartId]; ok && p.Filename != "" {
			aid, ok := byPart[p.PartId]
			if !ok {
				aid = fmt.Sprintf("att-%s-%s-g%d", id, p.PartId, s.generation)
				s.currentIDs[id][aid] = p.PartId
			}
			p.Body.AttachmentId = aid
		}
		for _, c := range p.Parts {
			walk(c)
		}
	}
	walk(payload)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	var req gmail.ModifyMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.modifies = append(s.modifies, ModifyCall{ID: id, Add: req.AddLabelIds, Remove: req.RemoveLabelIds})

	m, ok := s.messages[id]
	if !ok {
		writeNotFound(w)
		return
	}
	labels := slices.DeleteFunc(slices.Clone(m.LabelIds), func(l string) bool { return slices.Contains(req.RemoveLabelIds, l) })
	for _, l := range req.AddLabelIds {
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	m.LabelIds = labels
	writeJSON(w, &gmail.Message{Id: m.Id, ThreadId: m.ThreadId, LabelIds: m.LabelIds})
}

func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, aid := r.PathValue("id"), r.PathValue("aid")
	partID, ok := s.currentIDs[id][aid]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid attachment token")
		return
	}
	data := s.attachments[id][partID]
	writeJSON(w, gmail.MessagePartBody{
		AttachmentId: aid,
		Size:         int64(len(data)),
		Data:         base64.URLEncoding.EncodeToString(data),
	})
}

func cloneMessage(m *gmail.Message) *gmail.Message {
	data, _ := json.Marshal(m)
	var out gmail.Message
	_ = json.Unmarshal(data, &out)
	return &out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Requested entity was not found.")
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

// TextPart returns a base64url-encoded leaf part.
func TextPart(mimeType, body string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: mimeType,
		Body: &gmail.MessagePartBody{
			Size: int64(len(body)),
			Data: base64.URLEncoding.EncodeToString([]byte(body)),
		},
	}
}

// Headers builds payload headers from name/value pairs.
func Headers(pairs ...string) []*gmail.MessagePartHeader {
	var headers []*gmail.MessagePartHeader
	for i := 0; i+1 < len(pairs); i += 2 {
		headers = append(headers, &gmail.MessagePartHeader{Name: pairs[i], Value: pairs[i+1]})
	}
	return headers
}
