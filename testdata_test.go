package zipcore

import (
	archivezip "archive/zip"
	"bytes"
)

// buildZip writes a ZIP archive via the standard library's archive/zip,
// used across this package's new tests as an independent fixture
// generator so the tests aren't just checking the code against itself.
// Entries are written with Method: zip.Store, since this package's
// read path never decompresses (spec.md §1) and hands back raw entry
// bytes as-is; Store is what makes those raw bytes equal the original
// plaintext so tests can compare content directly.
func buildZip(files map[string]string) []byte {
	var buf bytes.Buffer
	w := archivezip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.CreateHeader(&archivezip.FileHeader{
			Name:   name,
			Method: archivezip.Store,
		})
		if err != nil {
			panic(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
