// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildfeed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders feed entries. Raw HTML is allowed because the
// colored status uses <font>, which Matrix clients still honor.
var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))

const (
	statusFailed  = "<font color='red'>**failed**</font>"
	statusSuccess = "<font color='green'>**success**</font>"
)

// FormatEntry renders one feed entry as an HTML fragment:
//
//	linux-release (<a href="https://ci/builders/linux-release/builds/42">42</a>): <font color='red'><strong>failed</strong></font>
func FormatEntry(builderName, buildURL string, build Build) (string, error) {
	status := statusSuccess
	if build.Failed {
		status = statusFailed
	}
	source := fmt.Sprintf("%s ([%d](<%s>)): %s", escapeMarkdown(builderName), build.Number, buildURL, status)

	var rendered bytes.Buffer
	if err := markdown.Convert([]byte(source), &rendered); err != nil {
		return "", fmt.Errorf("rendering entry for %s: %w", builderName, err)
	}
	fragment := strings.TrimSpace(rendered.String())
	fragment = strings.TrimPrefix(fragment, "<p>")
	fragment = strings.TrimSuffix(fragment, "</p>")
	return fragment, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "!", `\!`, "(", `\(`, ")", `\)`,
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
