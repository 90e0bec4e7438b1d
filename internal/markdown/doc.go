// Package markdown turns governed policy files into HTML. It splits YAML
// frontmatter from the body and renders GFM (tables, task lists, fenced code)
// with goldmark. The HTML feeds both page publishing and PDF layout.
package markdown
