package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/toolgate/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.New("jira", "Jira", []catalog.Operation{
		{
			Name:        "create_ticket",
			Description: "Create a ticket",
			Params: []catalog.Parameter{
				{Name: "summary", Type: "string", Required: true, Description: "Ticket summary", Example: "Fix login"},
				{Name: "project", Type: "string", Description: "Project key"},
			},
			Returns: "The created ticket key",
		},
		{
			Name:        "delete_ticket",
			Description: "Delete a ticket permanently",
			Params: []catalog.Parameter{
				{Name: "key", Type: "string", Required: true, Description: "Ticket key"},
			},
			Destructive: true,
		},
	}).WithCommon("create_ticket").WithDocsURL("https://example.test/jira-api")
}

func TestMarkdown(t *testing.T) {
	md := Markdown(testCatalog())

	assert.Contains(t, md, "# Jira (`jira`)")
	assert.Contains(t, md, "Common operations: `create_ticket`")
	assert.Contains(t, md, "## `create_ticket`")
	assert.Contains(t, md, "| `summary` | string | yes | Ticket summary (e.g. `Fix login`) |")
	assert.Contains(t, md, "Returns: The created ticket key")
	assert.Contains(t, md, "*destructive*")
	assert.Contains(t, md, "https://example.test/jira-api")
}

func TestOperationMarkdown(t *testing.T) {
	cat := testCatalog()
	op, ok := cat.Operation("delete_ticket")
	require.True(t, ok)

	md := OperationMarkdown(op)
	assert.Contains(t, md, "## `delete_ticket`")
	assert.NotContains(t, md, "create_ticket")
}

func TestHTMLIsSanitized(t *testing.T) {
	cat := catalog.New("x", "X", []catalog.Operation{
		{
			Name:        "op",
			Description: `Does things <script>alert("xss")</script>`,
		},
	})

	out := string(HTML(cat))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Does things")
}

func TestHTMLRendersTables(t *testing.T) {
	out := strings.ToLower(string(HTML(testCatalog())))
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2")
}
