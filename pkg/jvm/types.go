// Package jvm describes the Maven directory layout for JVM languages.
//
// Source roots follow the Maven convention:
//   - Main sources: src/main/<language>/
//   - Test sources: src/test/<language>/
//
// and every language compiles into the same output roots under target/:
// compiled classes plus annotation-processor generated sources.
package jvm

import (
	"slices"
)

// Language represents a JVM programming language.
type Language string

const (
	// Kotlin represents the Kotlin programming language.
	Kotlin Language = "kotlin"

	// Groovy represents the Groovy programming language.
	Groovy Language = "groovy"

	// Java represents the Java programming language.
	Java Language = "java"

	// Scala represents the Scala programming language.
	Scala Language = "scala"
)

// Output roots produced by a Maven build, as slash-delimited markers.
const (
	TargetClasses              = "/target/classes/"
	TargetGeneratedSources     = "/target/generated-sources/annotations/"
	TargetTestClasses          = "/target/test-classes/"
	TargetGeneratedTestSources = "/target/generated-test-sources/test-annotations/"
)

// FileExtensions returns the file extensions for this language.
//
// Extensions by language:
//   - Kotlin: .kt (source), .kts (scripts)
//   - Groovy: .groovy (standard), .gvy/.gy (short forms), .gsh (shell scripts)
//   - Java: .java
//   - Scala: .scala (source), .sc (worksheets)
func (l Language) FileExtensions() []string {
	switch l {
	case Kotlin:
		return []string{".kt", ".kts"}
	case Groovy:
		return []string{".groovy", ".gvy", ".gy", ".gsh"}
	case Java:
		return []string{".java"}
	case Scala:
		return []string{".scala", ".sc"}
	default:
		return nil
	}
}

// MainSourceMarker returns the slash-delimited marker that identifies a
// path inside the main source root, e.g. "/src/main/java/".
func (l Language) MainSourceMarker() string {
	return "/src/main/" + string(l) + "/"
}

// TestSourceMarker returns the slash-delimited marker that identifies a
// path inside the test source root, e.g. "/src/test/java/".
func (l Language) TestSourceMarker() string {
	return "/src/test/" + string(l) + "/"
}

// MainOutputs returns the output root markers derived from main sources,
// compiled classes first.
func MainOutputs() []string {
	return []string{TargetClasses, TargetGeneratedSources}
}

// TestOutputs returns the output root markers derived from test sources,
// compiled classes first.
func TestOutputs() []string {
	return []string{TargetTestClasses, TargetGeneratedTestSources}
}

// AllLanguages returns all supported JVM languages in a fixed order.
func AllLanguages() []Language {
	return []Language{Java, Kotlin, Scala, Groovy}
}

// ParseLanguage returns the Language for a name, or false if unsupported.
func ParseLanguage(name string) (Language, bool) {
	l := Language(name)
	if slices.Contains(AllLanguages(), l) {
		return l, true
	}
	return "", false
}

// LanguageForExtension returns the language owning a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	for _, l := range AllLanguages() {
		if slices.Contains(l.FileExtensions(), ext) {
			return l, true
		}
	}
	return "", false
}
