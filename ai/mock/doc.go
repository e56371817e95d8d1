// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let tests run without an embedding server while keeping vectors
// deterministic: the same text always maps to the same unit vector.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
package mock
