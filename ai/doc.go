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


// Package ai provides abstractions for the AI services used by CivicConnect.
//
// The recommender only needs one capability from an AI backend: turning text
// into a fixed-dimension vector. Scheme names are embedded once when the
// embedding cache is built and each user profile sentence is embedded once
// per request.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns an Embedder and its lifecycle
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types. Test constructors (mock.NewMockEmbedder) return CONCRETE
// types so tests can inject behavior and assert call counts:
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextsFunc = func(...) { ... }
//	count := mockEmbed.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("all-minilm"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "age 30, category OBC, annual income 120000, state Bihar")
package ai
