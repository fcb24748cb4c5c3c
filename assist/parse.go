package assist

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/eringen/siteforge/builder"
)

// Draft is the page structure extracted from a model reply.
type Draft struct {
	Action          string           `json:"action"`
	PageTitle       string           `json:"page_title"`
	MetaDescription string           `json:"meta_description"`
	Components      []DraftComponent `json:"components"`
}

// DraftComponent is one model-proposed component placement, still without
// an instance id.
type DraftComponent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

var jsonFence = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ParseResponse extracts a page draft from model output. Fenced ```json
// blocks are preferred, last one winning; failing that, the outermost
// brace span is tried, accepted only when it carries an "action" or
// "components" key. Nil means the reply had no usable structure, which is
// normal for clarifying-question turns.
func ParseResponse(text string) *Draft {
	if matches := jsonFence.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		if draft := decodeDraft(matches[len(matches)-1][1], false); draft != nil {
			return draft
		}
	}

	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open >= 0 && end > open {
		return decodeDraft(text[open:end+1], true)
	}
	return nil
}

func decodeDraft(raw string, requireKeys bool) *Draft {
	if requireKeys {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &keys); err != nil {
			return nil
		}
		if _, ok := keys["action"]; !ok {
			if _, ok := keys["components"]; !ok {
				return nil
			}
		}
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil
	}
	return &draft
}

// Component types managed site-wide; a draft may not place them.
var excludedTypes = map[string]bool{
	"nav-main":      true,
	"footer-simple": true,
	"sidebar-about": true,
}

// ValidateComponents checks a draft's components against the catalog:
// known types only, no site-wide components, all required fields present.
// The returned list is empty when the draft is acceptable.
func ValidateComponents(catalog *builder.Catalog, components []DraftComponent) []string {
	var errs []string
	for i, comp := range components {
		if excludedTypes[comp.Type] {
			errs = append(errs, fmt.Sprintf("Component %d: %q is a site-wide component", i, comp.Type))
			continue
		}
		def, ok := catalog.Component(comp.Type)
		if !ok {
			errs = append(errs, fmt.Sprintf("Component %d: Unknown type %q", i, comp.Type))
			continue
		}
		for _, field := range def.EditableFields {
			if !field.Required {
				continue
			}
			if _, ok := comp.Data[field.Name]; !ok {
				errs = append(errs, fmt.Sprintf("Component %d (%s): Missing required field %q",
					i, comp.Type, field.Name))
			}
		}
	}
	return errs
}

// PreparePageData turns a validated draft into a page config ready to
// save. Component instance ids carry the type and a timestamp so drafts
// merged into an existing page cannot collide with its comp-N ids; each
// component also gets an anchor_id defaulting to its instance id.
func PreparePageData(draft *Draft, pageID string, now time.Time) *builder.PageConfig {
	if pageID == "" {
		pageID = "ai-generated"
	}
	title := draft.PageTitle
	if title == "" {
		title = "AI Generated Page"
	}

	stamp := now.UTC().Format("20060102-150405")
	components := make([]builder.PageComponent, 0, len(draft.Components))
	for i, comp := range draft.Components {
		compType := comp.Type
		if compType == "" {
			compType = "unknown"
		}
		id := fmt.Sprintf("%s-%s-%d", compType, stamp, i)
		data := comp.Data
		if data == nil {
			data = map[string]any{}
		}
		if anchor, ok := data["anchor_id"].(string); !ok || anchor == "" {
			data["anchor_id"] = id
		}
		components = append(components, builder.PageComponent{ID: id, Type: compType, Data: data})
	}

	ts := now.UTC().Format(time.RFC3339Nano)
	return &builder.PageConfig{
		ID:              pageID,
		Title:           title,
		Slug:            pageID,
		MetaDescription: draft.MetaDescription,
		Slots:           map[string][]builder.PageComponent{"main": components},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}
