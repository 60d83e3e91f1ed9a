package ipfs

import (
	"testing"

	qt "github.com/frankban/quicktest"
	ipfscid "github.com/ipfs/go-cid"
)

const (
	cidV0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	cidV1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func TestIsCID(t *testing.T) {
	qt.Assert(t, IsCID(cidV0), qt.IsTrue)
	qt.Assert(t, IsCID(cidV1), qt.IsTrue)
	qt.Assert(t, IsCID(cidV0[:45]), qt.IsFalse)
	qt.Assert(t, IsCID("bogus"), qt.IsFalse)
	qt.Assert(t, IsCID("hello"), qt.IsFalse)
	qt.Assert(t, IsCID(""), qt.IsFalse)
	qt.Assert(t, IsCID("ipfs://"+cidV1), qt.IsFalse)
}

func TestCalculateCIDv1(t *testing.T) {
	c1, err := CalculateCIDv1([]byte("hello"))
	qt.Assert(t, err, qt.IsNil)
	c2, err := CalculateCIDv1([]byte("hello"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c1.Equals(c2), qt.IsTrue)
	qt.Assert(t, c1.Version(), qt.Equals, uint64(1))
	qt.Assert(t, IsCID(c1.String()), qt.IsTrue)

	c3, err := CalculateCIDv1([]byte("hello!"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c1.Equals(c3), qt.IsFalse)

	js := CalculateCIDv1json([]byte(`{"hello":"world"}`))
	_, err = ipfscid.Decode(js)
	qt.Assert(t, err, qt.IsNil)
}

func TestCIDequals(t *testing.T) {
	v0, err := ipfscid.Decode(cidV0)
	qt.Assert(t, err, qt.IsNil)
	v1 := ipfscid.NewCidV1(v0.Type(), v0.Hash()).String()

	qt.Assert(t, CIDequals(cidV0, v1), qt.IsTrue)
	qt.Assert(t, CIDequals("ipfs://"+cidV0, "/ipfs/"+v1), qt.IsTrue)
	qt.Assert(t, CIDequals(cidV0, cidV1), qt.IsFalse)
	qt.Assert(t, CIDequals("bogus", cidV1), qt.IsFalse)
}

func TestTrimPrefix(t *testing.T) {
	qt.Assert(t, TrimPrefix("ipfs://"+cidV1), qt.Equals, cidV1)
	qt.Assert(t, TrimPrefix("/ipfs/"+cidV1+"/a.png"), qt.Equals, cidV1+"/a.png")
	qt.Assert(t, TrimPrefix(cidV1), qt.Equals, cidV1)
}
