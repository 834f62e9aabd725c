package repository

import (
	"strings"
	"testing"

	"github.com/lvdashuaibi/ledgervote/internal/model"
)

func TestSnapshotKeysShareHashTag(t *testing.T) {
	snap := SnapshotKey(model.KindVoter, "/all-voter-histories")
	gen := GenerationKey(model.KindVoter)

	tag := "{voter}"
	if !strings.Contains(snap, tag) || !strings.Contains(gen, tag) {
		t.Errorf("keys of one kind must share the hash tag %s: %s, %s", tag, snap, gen)
	}
	if snap == SnapshotKey(model.KindVoter, "/voters") {
		t.Errorf("each endpoint needs its own key")
	}
	if GenerationKey(model.KindCandidate) == gen {
		t.Errorf("each kind needs its own generation")
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString("").Valid || !nullString("0x1").Valid {
		t.Errorf("empty strings should be stored as NULL")
	}
	ts := int64(1705032704)
	if nullInt64(nil).Valid || nullInt64(&ts).Int64 != ts {
		t.Errorf("unexpected null int conversion")
	}
}
