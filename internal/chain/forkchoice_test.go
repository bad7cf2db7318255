package chain

import "testing"

func TestGetReorgPath_WalksBackToCommonAncestor(t *testing.T) {
	tr := NewTree(0)
	genesis := testBlock(0, 0, 0)
	tr.AddGenesis(genesis)

	a1 := testBlock(1, 1, 0)
	tr.AddBlock(a1)
	a2 := testBlock(2, 2, 1)
	tr.AddBlock(a2)

	b1 := testBlock(1, 9, 0)
	tr.AddBlock(b1)
	b2 := testBlock(2, 8, 9)
	tr.AddBlock(b2)
	b3 := testBlock(3, 7, 8)
	tr.AddBlock(b3)

	revert, apply, err := tr.GetReorgPath(a2.Hash, b3.Hash)
	if err != nil {
		t.Fatalf("reorg path: %v", err)
	}
	if len(revert) != 2 || revert[0] != a2.Hash || revert[1] != a1.Hash {
		t.Errorf("unexpected revert path: %x", revert)
	}
	if len(apply) != 3 || apply[0] != b1.Hash || apply[1] != b2.Hash || apply[2] != b3.Hash {
		t.Errorf("unexpected apply path: %x", apply)
	}
}

func TestGetReorgPath_UnknownTipErrors(t *testing.T) {
	tr := NewTree(0)
	tr.AddGenesis(testBlock(0, 0, 0))

	unknown := testBlock(9, 99, 98)
	if _, _, err := tr.GetReorgPath(unknown.Hash, unknown.Hash); err == nil {
		t.Error("expected error for unknown tips")
	}
}
