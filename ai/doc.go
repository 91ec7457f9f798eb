// Copyright 2025 Poiesic Systems
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

// Package ai provides abstractions for the generation services used to answer
// questions about transcripts.
//
// # Design Principles
//
// The package is designed around a small set of interfaces:
//
//   - Completer: produces a completion for a prompt
//   - Streamer: optional capability of a Completer that streams chunks
//   - Embedder: generates vector embeddings for semantic scoring
//   - Provider: aggregates the services for convenient initialization
//
// Callers discover streaming with a type assertion rather than a flag:
//
//	if s, ok := completer.(ai.Streamer); ok {
//	    err = s.Stream(ctx, prompt, fn)
//	}
//
// # Implementation Packages
//
//   - ai/ollama: native Ollama server via langchaingo
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/mock: test doubles for unit testing without external dependencies
//
// ModelCompleter adapts any langchaingo llms.Model, so the fake model from
// langchaingo can stand in for a real server in tests.
//
// # Constructor Return Type Pattern
//
// Public provider constructors (ollama.NewProvider, openai.NewProvider) return
// the ai.Provider INTERFACE. Test utility constructors in ai/mock return
// CONCRETE types so tests can inject behavior and assert call counts.
package ai
