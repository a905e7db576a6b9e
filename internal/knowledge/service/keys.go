package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey builds the bucket key for one document file.
func ObjectKey(kbID, documentID uuid.UUID, fileName string) string {
	return fmt.Sprintf("kb/%s/%s/%s", kbID, documentID, fileName)
}

// DocumentPrefix covers every object belonging to one document.
func DocumentPrefix(kbID, documentID uuid.UUID) string {
	return fmt.Sprintf("kb/%s/%s/", kbID, documentID)
}

// KBPrefix covers every object belonging to one knowledge base.
func KBPrefix(kbID uuid.UUID) string {
	return fmt.Sprintf("kb/%s/", kbID)
}

// ParseObjectKey extracts the KB and document ids from a bucket key. It
// returns false for keys outside the kb/{kb_id}/{document_id}/{file_name}
// layout.
func ParseObjectKey(key string) (kbID, documentID uuid.UUID, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "kb" || parts[3] == "" {
		return uuid.Nil, uuid.Nil, false
	}

	kbID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	documentID, err = uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}

	return kbID, documentID, true
}
