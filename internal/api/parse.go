package api

import (
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/models"
)

// parseChatReply interprets a chat response. A 2xx body is accepted only
// when it is JSON carrying a string "message" and no status "error".
func parseChatReply(status int, body []byte) (*models.ChatReply, error) {
	if status < 200 || status > 299 {
		return nil, rejection(status, models.EndpointChat, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, apierrors.NewParseError("response is not an object", "")
	}

	if root.Get("status").String() == models.StatusError {
		return nil, rejection(status, models.EndpointChat, body)
	}

	message := root.Get("message")
	if message.Type != gjson.String {
		return nil, apierrors.NewParseError("missing reply text", "message")
	}

	reply := &models.ChatReply{
		Status:  root.Get("status").String(),
		Message: message.Str,
		Learned: int(root.Get("learned").Int()),
	}
	if source := root.Get("source"); source.Type == gjson.String {
		reply.Source = source.Str
	}

	return reply, nil
}

// rejection builds an APIError, taking the reason from a string "message"
// field when the body carries one
func rejection(status int, endpoint string, body []byte) *apierrors.APIError {
	var reason string
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
			reason = msg.Str
		}
	}

	raw := string(body)
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return apierrors.NewAPIErrorWithBody(status, endpoint, reason, raw)
}

func parseHealth(body []byte) (*models.Health, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	status := gjson.GetBytes(body, "status")
	if !status.Exists() {
		return nil, apierrors.NewParseError("missing status", "status")
	}

	return &models.Health{
		Status:  status.String(),
		Version: gjson.GetBytes(body, "version").String(),
	}, nil
}

func parseStats(body []byte) (*models.Stats, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, apierrors.NewParseError("response is not an object", "")
	}

	return &models.Stats{
		TotalLearnedQA:     int(root.Get("total_learned_qa").Int()),
		TotalMessages:      int(root.Get("total_messages").Int()),
		TotalConversations: int(root.Get("total_conversations").Int()),
	}, nil
}

func parseKnowledge(body []byte) ([]models.KnowledgeEntry, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, apierrors.NewParseError("expected an array", "")
	}

	entries := make([]models.KnowledgeEntry, 0)
	root.ForEach(func(_, value gjson.Result) bool {
		entries = append(entries, models.KnowledgeEntry{
			Q:    value.Get("Q").String(),
			A:    value.Get("A").String(),
			Uses: int(value.Get("Uses").Int()),
		})
		return true
	})

	return entries, nil
}
