// Package report renders run summaries in text, JSON, and Markdown.
// The requirements output itself is written by the reqfile package; these
// writers cover the optional summary a run can emit alongside it.
package report
