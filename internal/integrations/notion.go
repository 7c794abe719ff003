package integrations

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
)

// NotionIntegration handles the Notion action target. Notes are created as
// pages under a configured parent page.
type NotionIntegration struct {
	client       *notionapi.Client
	parentPageID string
}

// NewNotionIntegration creates the Notion handlers.
func NewNotionIntegration(apiKey, parentPageID string) *NotionIntegration {
	return &NotionIntegration{
		client:       notionapi.NewClient(notionapi.Token(apiKey)),
		parentPageID: parentPageID,
	}
}

// CreateNote creates a page titled from the action parameters, with the
// note body as a paragraph block when present.
func (n *NotionIntegration) CreateNote(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	title := p.Title
	if title == "" {
		title = p.Content
	}
	if title == "" {
		return nil, fmt.Errorf("%w: a note title is required", agent.ErrMissingIdentifier)
	}
	if n.parentPageID == "" {
		return nil, fmt.Errorf("%w: NOTION_PARENT_PAGE_ID is not set, cannot place the note", agent.ErrConfiguration)
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(n.parentPageID),
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Text: &notionapi.Text{Content: title}},
				},
			},
		},
	}

	body := p.Text
	if body == "" && p.Content != title {
		body = p.Content
	}
	if body != "" {
		req.Children = []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: []notionapi.RichText{
						{Text: &notionapi.Text{Content: body}},
					},
				},
			},
		}
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrUpstream, err)
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Created note %q in Notion.", title),
		URL:     page.URL,
		Data:    page,
	}, nil
}

// SearchNotes runs a workspace search for pages matching the query.
func (n *NotionIntegration) SearchNotes(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	query := p.Query
	if query == "" {
		query = p.LookupText()
	}
	if query == "" {
		return nil, fmt.Errorf("%w: a search query is required", agent.ErrMissingIdentifier)
	}

	resp, err := n.client.Search.Do(ctx, &notionapi.SearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrUpstream, err)
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("%d Notion pages match %q.", len(resp.Results), query),
		Data:    resp.Results,
	}, nil
}
