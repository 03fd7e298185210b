// Package dialogue connects a Gemini chat model to the intake flow through
// function calling.
package dialogue

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/wolfman30/voice-intake/internal/intake"
)

// Tools renders the published intake actions as Gemini function declarations.
func Tools(specs []intake.ActionSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        string(spec.Name),
			Description: spec.Description,
		}
		if len(spec.Parameters) > 0 {
			props := make(map[string]*genai.Schema, len(spec.Parameters))
			for _, p := range spec.Parameters {
				props[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			}
			decl.Parameters = &genai.Schema{Type: genai.TypeObject, Properties: props}
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaType(t intake.ParamType) genai.Type {
	if t == intake.ParamBoolean {
		return genai.TypeBoolean
	}
	return genai.TypeString
}

// functionCalls extracts the function calls of a model response.
func functionCalls(parts []genai.Part) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			calls = append(calls, p)
		case *genai.FunctionCall:
			if p != nil {
				calls = append(calls, *p)
			}
		}
	}
	return calls
}

func text(parts []genai.Part) string {
	var out string
	for _, part := range parts {
		if t, ok := part.(genai.Text); ok {
			out += string(t)
		}
	}
	return out
}
