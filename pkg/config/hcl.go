// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// evalContext exposes env.* and a few string helpers to job files
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
		},
	}
}

// 📝 Parse parses the job from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Job, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "job.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Define HCL schema
	type hclJob struct {
		Source  string   `hcl:"source"`
		Copies  *int     `hcl:"copies,optional"`
		Text    string   `hcl:"text,optional"`
		Swap    bool     `hcl:"swap,optional"`
		Zip     bool     `hcl:"zip,optional"`
		Ignore  []string `hcl:"ignore,optional"`
		Overlay *struct {
			Text     *string `hcl:"text,optional"`
			Photo    *int    `hcl:"photo,optional"`
			Font     string  `hcl:"font,optional"`
			Position string  `hcl:"position,optional"`
		} `hcl:"overlay,block"`
	}

	var raw hclJob
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	job := &Job{
		Source: raw.Source,
		Copies: raw.Copies,
		Text:   raw.Text,
		Swap:   raw.Swap,
		Zip:    raw.Zip,
		Ignore: raw.Ignore,
	}
	if raw.Overlay != nil {
		job.Overlay = &OverlayArgs{
			Text:     raw.Overlay.Text,
			Photo:    raw.Overlay.Photo,
			Font:     raw.Overlay.Font,
			Position: raw.Overlay.Position,
		}
	}

	return job, nil
}
