package service

import (
	"strings"

	"feedlens/internal/models"
)

// DeriveQAPairs flattens threads into (user message, assistant reply) pairs,
// the finer-grained unit shown when the filter level is "qa". A user message
// pairs with the next assistant message in the same thread; trailing user
// messages without a reply are dropped.
func DeriveQAPairs(threads []models.ThreadRecord) []*models.QAPair {
	var pairs []*models.QAPair

	for _, record := range threads {
		threadID := recordThreadID(record)

		var question map[string]interface{}
		for _, message := range recordMessages(record) {
			role := rawMessageRole(message)
			switch {
			case isUserRole(role):
				question = message
			case isAssistantRole(role) && question != nil:
				pairs = append(pairs, &models.QAPair{
					ThreadID: threadID,
					Question: question,
					Answer:   message,
				})
				question = nil
			}
		}
	}

	return pairs
}

// FilterQAPairs applies the free-text search term at the pair level, matching
// either side of the exchange.
func FilterQAPairs(pairs []*models.QAPair, searchTerm string) []*models.QAPair {
	searchTerm = strings.ToLower(strings.TrimSpace(searchTerm))
	if searchTerm == "" {
		return pairs
	}

	out := make([]*models.QAPair, 0, len(pairs))
	for _, pair := range pairs {
		if strings.Contains(strings.ToLower(messageContent(pair.Question)), searchTerm) ||
			strings.Contains(strings.ToLower(messageContent(pair.Answer)), searchTerm) {
			out = append(out, pair)
		}
	}

	return out
}

func recordThreadID(record models.ThreadRecord) string {
	for _, key := range []string{"thread_id", "id"} {
		if id, ok := record[key].(string); ok && id != "" {
			return id
		}
	}
	if values, ok := record["values"].(map[string]interface{}); ok {
		if id, ok := values["thread_id"].(string); ok {
			return id
		}
	}
	return ""
}

func recordMessages(record models.ThreadRecord) []map[string]interface{} {
	raw, ok := record["messages"].([]interface{})
	if !ok {
		if values, valuesOk := record["values"].(map[string]interface{}); valuesOk {
			raw, ok = values["messages"].([]interface{})
		}
	}
	if !ok {
		return nil
	}

	messages := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if message, ok := item.(map[string]interface{}); ok {
			messages = append(messages, message)
		}
	}

	return messages
}

func rawMessageRole(message map[string]interface{}) string {
	if role, ok := message["role"].(string); ok && role != "" {
		return role
	}
	if kind, ok := message["type"].(string); ok {
		return kind
	}
	return ""
}

func messageContent(message map[string]interface{}) string {
	if message == nil {
		return ""
	}
	if content, ok := message["content"].(string); ok {
		return content
	}
	return ""
}
