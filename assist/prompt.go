package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eringen/siteforge/builder"
)

// Categories whose components are managed site-wide and must not appear
// in model-generated page content.
var excludedCategories = map[string]bool{
	"navigation": true,
	"footer":     true,
	"sidebar":    true,
}

// BuildSystemPrompt teaches the model the component vocabulary: every
// page-level component type with its fields, the page structure, the
// response contract, and the current site context when one exists.
func BuildSystemPrompt(catalog *builder.Catalog, site *builder.SiteConfig) string {
	var docs strings.Builder
	for _, comp := range catalog.Components("") {
		if excludedCategories[comp.Category] {
			continue
		}
		fmt.Fprintf(&docs, "\n### %s (type: %q)\n%s\nCategory: %s\nFields:\n",
			comp.Name, comp.ID, comp.Description, comp.Category)
		if len(comp.EditableFields) == 0 {
			docs.WriteString("  (no configurable fields)\n")
		}
		for _, field := range comp.EditableFields {
			label := field.Label
			if label == "" {
				label = field.Name
			}
			fmt.Fprintf(&docs, "  - %s (%s): %s", field.Name, field.Type, label)
			if field.Required {
				docs.WriteString(" [REQUIRED]")
			}
			if field.Default != nil {
				fmt.Fprintf(&docs, " (default: %v)", field.Default)
			}
			if len(field.Options) > 0 {
				fmt.Fprintf(&docs, " Options: %v", field.Options)
			}
			docs.WriteByte('\n')
		}
	}

	siteContext := ""
	if site != nil {
		siteContext = fmt.Sprintf(`## Current Site Context
- Site name: %s
- Color scheme: %s
- Existing pages: %s`, site.SiteName, site.ColorSchemeID, strings.Join(site.Pages, ", "))
	}

	sections := []string{
		"You are an AI assistant helping users build web pages using a " +
			"component-based page builder. You have expertise in web design, " +
			"content strategy, and user experience.",

		`## Your Role
1. Help users create professional web pages by generating component configs
2. Ask clarifying questions when requirements are unclear
3. Suggest improvements and best practices
4. Generate valid JSON component structures that match the page builder schema`,

		`## Communication Style
- Be conversational and helpful, like a web designer collaborating with a client
- Ask ONE focused question at a time when you need clarification
- When generating pages, explain your design choices briefly
- If the request is vague, ask about: purpose, audience, key content, style`,

		`## Page Structure
Pages have a "main" slot that contains an array of components. Each component has:
- type: The component ID (string)
- data: Object with field values matching the component's editable_fields`,

		"## Available Components\n" + docs.String(),

		`## Important Component Notes

### content-block (Most Versatile)
This is your primary component for most content. It has toggleable sections:
- show_image: Enable to add images/slideshows
- show_overlay: Enable to add text/button overlay on images
- show_text: Enable for rich text content (HTML supported)
- show_timestamp: Enable for date display
- show_border: Enable for decorative borders

### text-heading
Use for section titles. Supports heading + subtitle + alignment.

### two-column
Container component with left_slot and right_slot arrays for other components.

### gallery-grid
For image galleries. Requires an "images" array of image URLs.

### contact-form
Ready-to-use contact form. Requires an "email" field for submissions.`,

		siteContext,

		"## Response Format\n\n" +
			"CRITICAL INSTRUCTIONS - READ CAREFULLY:\n" +
			"1. The user CANNOT see any JSON or code you write - it is automatically hidden and parsed\n" +
			"2. Write ONLY a brief, friendly 1-2 sentence explanation of what you created\n" +
			"3. Do NOT mention JSON, code, or technical details in your explanation\n" +
			"4. Do NOT say \"here's the page\", \"see below\", \"I've created the following\" etc.\n" +
			"5. Just describe what you made conversationally, then put the JSON in a code block\n\n" +
			"After your brief explanation, include ONLY a ```json code block:\n\n" +
			"```json\n" +
			"{\n" +
			"  \"action\": \"generate_page\",\n" +
			"  \"page_title\": \"Page Title\",\n" +
			"  \"meta_description\": \"SEO description\",\n" +
			"  \"components\": [...]\n" +
			"}\n" +
			"```\n\n" +
			"When you need clarification, just ask naturally without any JSON.",

		`## Best Practices
1. Start pages with a compelling heading or hero section
2. Use content-block for flexible content sections
3. Break up long content with visual elements
4. End pages with a call-to-action or contact section
5. Keep text concise and scannable
6. Use appropriate spacing (spacing_top, spacing_bottom)
7. Generate realistic placeholder content, not "Lorem ipsum"`,
	}

	kept := sections[:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

// pageContextSuffix renders the page being edited for the model's first
// turn.
func pageContextSuffix(page *builder.PageConfig) string {
	title := page.Title
	if title == "" {
		title = "Untitled"
	}
	components, err := json.MarshalIndent(page.Slots["main"], "", "  ")
	if err != nil {
		components = []byte("[]")
	}
	return fmt.Sprintf("\n\nCurrently editing page: %s\nCurrent components: %s", title, components)
}
