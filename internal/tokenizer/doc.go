// Package tokenizer turns text into token id tensors for the encoder models.
//
// Text is split with tiktoken (cl100k_base by default). Because the engine
// ships no trained vocabulary, ids are folded into the model's vocabulary
// range and framed with [CLS] ... [SEP] the way BERT inputs are.
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := tokenizer.Sequence(tok, "Hello, world!", tokenizer.DefaultSequenceConfig())
//	// ids: [1, 128] float tensor ready for BERT.Forward
package tokenizer
