// Package model defines the provider-agnostic abstractions for interacting
// with language models inside quillmesh.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Ollama through its OpenAI-compatible endpoint,
// Anthropic) implement the Model interface so domain agents stay decoupled
// from vendor SDKs. Agents that only need the final text use Complete.
package model
