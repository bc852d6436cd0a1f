package langs

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/albertocavalcante/classwatch/pkg/jvm"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []jvm.Language
		wantErr bool
	}{
		{name: "empty", input: nil, want: nil},
		{name: "single", input: []string{"java"}, want: []jvm.Language{jvm.Java}},
		{name: "case and spaces", input: []string{" Kotlin ", "JAVA"}, want: []jvm.Language{jvm.Kotlin, jvm.Java}},
		{name: "duplicates dropped", input: []string{"scala", "scala"}, want: []jvm.Language{jvm.Scala}},
		{name: "blank entries skipped", input: []string{"", "groovy"}, want: []jvm.Language{jvm.Groovy}},
		{name: "unknown", input: []string{"cobol"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "java") {
					t.Errorf("error should list supported names: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	if got := Names(); got != "java, kotlin, scala, groovy" {
		t.Errorf("Names() = %q", got)
	}
}

func TestIgnoreSetMatch(t *testing.T) {
	s := NewIgnoreSet([]string{".", "target", "build", "out", "node_modules"})

	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".idea", true},
		{"target", true},
		{"build", true},
		{"node_modules", true},
		{"builder", false},
		{"outbound", false},
		{"targets", false},
		{"com", false},
		{".", false},
		{"..", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Match(tt.name); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIgnoreSetWithoutHidden(t *testing.T) {
	s := NewIgnoreSet([]string{"target"})
	if s.Match(".git") {
		t.Error("hidden directories are only ignored when \".\" is listed")
	}
}

func TestIgnoreSetUnder(t *testing.T) {
	s := NewIgnoreSet([]string{".", "target"})
	root := filepath.FromSlash("/proj")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"ignored ancestor", "/proj/target/classes/Foo.class", true},
		{"hidden ancestor", "/proj/.git/objects/ab", true},
		{"last element not checked", "/proj/src/target", false},
		{"plain source", "/proj/src/main/java/Foo.java", false},
		{"root itself", "/proj", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Under(root, filepath.FromSlash(tt.path)); got != tt.want {
				t.Errorf("Under(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIgnoreSetKeepSources(t *testing.T) {
	s := NewIgnoreSet([]string{".", "target", "build", "out"}).
		KeepSources([]string{"/src/main/java/", "/src/test/java/"})

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"gradle output", "/proj/build", true},
		{"maven output", "/proj/target", true},
		{"package named build", "/proj/src/main/java/com/acme/build", false},
		{"package named out", "/proj/src/test/java/out", false},
		{"hidden package dir", "/proj/src/main/java/.idea", false},
		{"source root below output", "/proj/build/src/main/java", false},
		{"plain package", "/proj/src/main/java/com", false},
		{"output outside sources", "/proj/src/main/resources/build", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Skip(filepath.FromSlash(tt.path)); got != tt.want {
				t.Errorf("Skip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	root := filepath.FromSlash("/proj")
	if s.Under(root, filepath.FromSlash("/proj/src/main/java/com/acme/build/Foo.java")) {
		t.Error("a source under a package named build must not be ignored")
	}
	if !s.Under(root, filepath.FromSlash("/proj/build/src/main/java/Foo.java")) {
		t.Error("sources copied under build output stay ignored")
	}
}
