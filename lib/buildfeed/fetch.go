// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/matrixbot/lib/netutil"
)

// buildKey selects the last completed build in the builds document.
// Build "-1" may still be running.
const buildKey = "-2"

// Build is the part of a build the feed reports on.
type Build struct {
	Number int64
	Failed bool

	// Comment is the commit message of the first change in the build,
	// or "" when the build has none.
	Comment string
}

type buildDocument struct {
	Number      *int64          `json:"number"`
	Text        json.RawMessage `json:"text"`
	SourceStamp struct {
		Changes []struct {
			Comments string `json:"comments"`
		} `json:"changes"`
	} `json:"sourceStamp"`
}

// fetchBuild downloads the builds document for builder and extracts
// the last completed build.
func fetchBuild(ctx context.Context, client *http.Client, buildsURL string) (Build, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, buildsURL, nil)
	if err != nil {
		return Build{}, fmt.Errorf("building request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return Build{}, fmt.Errorf("fetching builds: %w", err)
	}
	defer response.Body.Close()
	if err := netutil.CheckStatus(response); err != nil {
		return Build{}, err
	}

	var builds map[string]json.RawMessage
	if err := netutil.DecodeResponse(response.Body, &builds); err != nil {
		return Build{}, err
	}
	raw, ok := builds[buildKey]
	if !ok {
		return Build{}, fmt.Errorf("builds document has no build %q", buildKey)
	}
	return parseBuild(raw)
}

func parseBuild(raw json.RawMessage) (Build, error) {
	var document buildDocument
	if err := json.Unmarshal(raw, &document); err != nil {
		return Build{}, fmt.Errorf("decoding build: %w", err)
	}
	if document.Number == nil {
		return Build{}, fmt.Errorf("build has no number")
	}
	failed, err := textReportsFailure(document.Text)
	if err != nil {
		return Build{}, err
	}
	build := Build{Number: *document.Number, Failed: failed}
	if changes := document.SourceStamp.Changes; len(changes) > 0 {
		build.Comment = changes[0].Comments
	}
	return build, nil
}

// textReportsFailure accepts the two shapes buildbot uses for a
// build's text: a word list (["failed", "compile"]) or a sentence.
func textReportsFailure(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err == nil {
		return slices.Contains(words, "failed"), nil
	}
	var sentence string
	if err := json.Unmarshal(raw, &sentence); err == nil {
		return strings.Contains(sentence, "failed"), nil
	}
	return false, fmt.Errorf("build text is neither a string nor a list of strings: %s", raw)
}

// expandURL fills the {builder_name} and {last_buildjob} placeholders.
// The builder name is path-escaped.
func expandURL(template, builderName string, number int64) string {
	return strings.NewReplacer(
		"{builder_name}", url.PathEscape(builderName),
		"{last_buildjob}", strconv.FormatInt(number, 10),
	).Replace(template)
}
