// Package flashmemo is the composition root of FlashMemo, a note capture and
// retrieval core.
//
// It wires the domain (notes, the storage contract and the capture service
// in pkg/core) to one of two storage adapters using functional options:
//
//   - local: one directory per tag, one Markdown file with a small header
//     per note copy, optionally versioned with git (pkg/adapters/fs).
//   - feishu: one remote folder per tag, one block-structured document per
//     note copy (pkg/adapters/feishu).
//
// A note filed under several tags has one physical copy per tag. Save and
// Update report a per-tag outcome; whether a partial save counts as success
// is decided by the save policy ("any" by default).
//
// Retrieval over notes lives in pkg/retrieval: a chat model picks the tags
// relevant to a question and the notes under those tags become the context
// of the answer.
//
// Usage:
//
//	svc, err := flashmemo.New("~/FlashMemo",
//		flashmemo.WithVersioning(true),
//		flashmemo.WithLogger(logger),
//	)
//
//	res, err := svc.SaveNote(ctx, core.NewNote("call the bank", "todo"))
//	fmt.Println(res.Summary())
package flashmemo
