package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmail-mcp/internal/gmail"
)

// Resource URIs.
const (
	ProfileURI = "gmail://profile"
	LabelsURI  = "gmail://labels"
)

// ClientFactory yields a Gmail client for the current account.
type ClientFactory interface {
	Client(ctx context.Context) (*gmail.Client, error)
}

// RegisterGmailResources registers the mailbox resources on s.
func RegisterGmailResources(s *mcpserver.MCPServer, clients ClientFactory) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Gmail Profile",
		mcp.WithResourceDescription("Email address and message/thread totals of the authenticated account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, profileHandler(clients))

	labelsResource := mcp.NewResource(
		LabelsURI,
		"Gmail Labels",
		mcp.WithResourceDescription("System and user labels of the authenticated account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(labelsResource, labelsHandler(clients))

	return nil
}

type profileData struct {
	Email         string `json:"email"`
	MessagesTotal int64  `json:"messagesTotal"`
	ThreadsTotal  int64  `json:"threadsTotal"`
}

type labelData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func profileHandler(clients ClientFactory) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		c, err := clients.Client(ctx)
		if err != nil {
			return nil, err
		}
		profile, err := c.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, profileData{
			Email:         profile.EmailAddress,
			MessagesTotal: profile.MessagesTotal,
			ThreadsTotal:  profile.ThreadsTotal,
		})
	}
}

func labelsHandler(clients ClientFactory) mcpserver.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		c, err := clients.Client(ctx)
		if err != nil {
			return nil, err
		}
		labels, err := c.ListLabels(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]labelData, 0, len(labels))
		for _, l := range labels {
			out = append(out, labelData{ID: l.Id, Name: l.Name, Type: l.Type})
		}
		return jsonContents(request.Params.URI, out)
	}
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
