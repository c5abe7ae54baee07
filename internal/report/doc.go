// Package report renders verification job summaries into text report files
// and display text.
package report
