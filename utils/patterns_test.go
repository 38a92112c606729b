package utils

import "testing"

func TestShouldInclude(t *testing.T) {
	matcher := NewPatternMatcher(nil, nil)
	if !matcher.ShouldInclude("file.txt") {
		t.Fatal("expected include by default")
	}
	matcher = NewPatternMatcher([]string{"*.exe"}, nil)
	if matcher.ShouldInclude("/data/file.txt") {
		t.Fatal("should not include unmatched include pattern")
	}
	if !matcher.ShouldInclude("/data/setup.exe") {
		t.Fatal("should include matching include pattern")
	}
	matcher = NewPatternMatcher(nil, []string{"secret.*"})
	if matcher.ShouldInclude("/home/secret.txt") {
		t.Fatal("should exclude matching exclude pattern")
	}
	if !matcher.ShouldInclude("/home/notes.txt") {
		t.Fatal("should include when exclude does not match")
	}
	matcher = NewPatternMatcher([]string{".*file\\.go$"}, nil)
	if !matcher.ShouldInclude("path/to/file.go") {
		t.Fatal("should match regex include pattern")
	}
}

func TestDoublestarGlobs(t *testing.T) {
	matcher := NewPatternMatcher(nil, []string{"**/node_modules/**"})
	if matcher.ShouldInclude("/repo/node_modules/pkg/bin.exe") {
		t.Fatal("expected node_modules subtree to be excluded")
	}
	if !matcher.ShouldInclude("/repo/src/bin.exe") {
		t.Fatal("expected unrelated path to be included")
	}
}

func TestNilMatcherIncludesAll(t *testing.T) {
	var matcher *PatternMatcher
	if !matcher.ShouldInclude("anything") {
		t.Fatal("nil matcher should include everything")
	}
}
