package chatschema

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var issuePrinter = message.NewPrinter(language.English)

// collectIssues flattens a validation error tree into one Issue per failed
// keyword, ordered shallowest path first.
func collectIssues(root any, verr *jsv.ValidationError) []Issue {
	c := issueCollector{root: root}
	c.collect(verr)

	slices.SortStableFunc(c.issues, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(pathDepth(a.Path), pathDepth(b.Path)),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Code, b.Code),
		)
	})
	return c.issues
}

type issueCollector struct {
	root   any
	issues []Issue
}

func (c *issueCollector) collect(verr *jsv.ValidationError) {
	path, value := c.locate(verr.InstanceLocation)

	switch k := verr.ErrorKind.(type) {
	case *kind.Required:
		for _, name := range k.Missing {
			c.issues = append(c.issues, Issue{
				Path:     joinField(path, name),
				Code:     IssueRequired,
				Expected: "value",
				Received: "undefined",
				Message:  "required",
			})
		}

	case *kind.Type:
		expected := strings.Join(k.Want, " or ")
		c.add(path, IssueInvalidType, expected, value,
			fmt.Sprintf("expected %s, received %s", expected, describe(value)))

	case *kind.Const:
		expected := displayJSON(k.Want)
		c.add(path, IssueInvalidLiteral, expected, value, "expected literal "+expected)

	case *kind.Enum:
		want := make([]string, len(k.Want))
		for i, w := range k.Want {
			want[i] = displayJSON(w)
		}
		expected := strings.Join(want, " | ")
		c.add(path, IssueInvalidValue, expected, value, "expected one of "+expected)

	case *kind.Minimum:
		bound := k.Want.RatString()
		c.add(path, IssueOutOfRange, ">= "+bound, value, "must be at least "+bound)

	case *kind.Maximum:
		bound := k.Want.RatString()
		c.add(path, IssueOutOfRange, "<= "+bound, value, "must be at most "+bound)

	case *kind.OneOf, *kind.AnyOf:
		c.union(verr, path, value)

	default:
		if len(verr.Causes) == 0 {
			c.add(path, IssueInvalidValue, "", value, verr.ErrorKind.LocalizedString(issuePrinter))
			return
		}
		for _, cause := range verr.Causes {
			c.collect(cause)
		}
	}
}

// union keeps the issues of the alternatives whose type matched the value.
// When no alternative accepted the value's type the whole value is reported.
func (c *issueCollector) union(verr *jsv.ValidationError, path string, value any) {
	branches := issueCollector{root: c.root}
	for _, cause := range verr.Causes {
		branches.collect(cause)
	}

	matched := false
	for _, issue := range branches.issues {
		if issue.Code == IssueInvalidType && issue.Path == path {
			continue
		}
		c.issues = append(c.issues, issue)
		matched = true
	}
	if !matched {
		c.add(path, IssueInvalidUnion, "one of the union members", value,
			fmt.Sprintf("%s matches none of the allowed shapes", describe(value)))
	}
}

func (c *issueCollector) add(path string, code IssueCode, expected string, got any, msg string) {
	c.issues = append(c.issues, Issue{
		Path:     path,
		Code:     code,
		Expected: expected,
		Received: describe(got),
		Message:  msg,
	})
}

// locate turns a JSON pointer token list into a dotted/indexed path and
// returns the value found there.
func (c *issueCollector) locate(tokens []string) (string, any) {
	var sb strings.Builder
	cur := c.root
	for _, tok := range tokens {
		switch node := cur.(type) {
		case []any:
			sb.WriteString("[" + tok + "]")
			if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(node) {
				cur = node[i]
			} else {
				cur = nil
			}
		case map[string]any:
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(tok)
			cur = node[tok]
		default:
			cur = nil
		}
	}
	return sb.String(), cur
}

func joinField(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathDepth(path string) int {
	if path == "" {
		return 0
	}
	return 1 + strings.Count(path, ".") + strings.Count(path, "[")
}

func displayJSON(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}
