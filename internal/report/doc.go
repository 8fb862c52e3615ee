// Package report compiles a finalized crawl store into a summary and renders it as
// JSON, HTML, Markdown or XLSX.
package report
