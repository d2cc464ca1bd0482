package domain

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultBlobCacheSize bounds how many decoded content blobs are kept.
const DefaultBlobCacheSize = 256

// blobCache maps a raw content blob to its decoded aggregate. Entries are
// cloned on the way in and out so callers never share slot pointers.
var blobCache = mustBlobCache(DefaultBlobCacheSize)

func mustBlobCache(size int) *lru.Cache[string, DiaryContentFields] {
	c, err := lru.New[string, DiaryContentFields](size)
	if err != nil {
		panic(err)
	}
	return c
}

// PurgeBlobCache drops every cached decode result.
func PurgeBlobCache() {
	blobCache.Purge()
}
