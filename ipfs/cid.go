// Package ipfs holds content identifier helpers shared by the storage backends.
package ipfs

import (
	"strings"

	ipfscid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"

	"go.vocdoni.io/ballot/log"
)

const (
	// ProtocolPrefix is the URI scheme of IPFS locators
	ProtocolPrefix = "ipfs://"
	// PathPrefix is the path namespace of IPFS content
	PathPrefix = "/ipfs/"

	cidV0Prefix = "Qm"
	cidV0Length = 46
)

// CalculateCIDv1 returns the CIDv1 (raw codec, sha2-256) of data. It identifies the
// bytes, not the UnixFS DAG a node builds when adding them.
func CalculateCIDv1(data []byte) (ipfscid.Cid, error) {
	format := ipfscid.V1Builder{
		Codec:  uint64(multicodec.Raw),
		MhType: uint64(multihash.SHA2_256),
	}
	return format.Sum(data)
}

// CalculateCIDv1json returns the CIDv1 string of a JSON document, using parameters
// Codec: DagJSON, MhType: SHA2_256
func CalculateCIDv1json(data []byte) string {
	format := ipfscid.V1Builder{
		Codec:  uint64(multicodec.DagJson),
		MhType: uint64(multihash.SHA2_256),
	}
	c, err := format.Sum(data)
	if err != nil {
		log.Errorw(err, "could not calculate cid")
		return ""
	}
	return c.String()
}

// TrimPrefix strips the ipfs:// scheme and the /ipfs/ path prefix of s, if present.
func TrimPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, ProtocolPrefix), PathPrefix)
}

// IsCID reports whether s is a bare content identifier: a CIDv0 (Qm + 44 base58
// characters) or a base32 CIDv1.
func IsCID(s string) bool {
	switch {
	case strings.HasPrefix(s, cidV0Prefix):
		if len(s) != cidV0Length {
			return false
		}
	case strings.HasPrefix(s, "b"):
	default:
		return false
	}
	_, err := ipfscid.Decode(s)
	return err == nil
}

// CIDequals compares two Cids (v0 or v1) and returns true if they are equal.
// It compares the hash of the Cid, not the Cid itself (which contains also the codec and encoding).
// It strips the ipfs:// prefix and the /ipfs/ prefix if present.
func CIDequals(cid1, cid2 string) bool {
	c1, err := ipfscid.Decode(TrimPrefix(cid1))
	if err != nil {
		log.Debugw("could not decode cid", "cid", cid1, "error", err)
		return false
	}
	c2, err := ipfscid.Decode(TrimPrefix(cid2))
	if err != nil {
		log.Debugw("could not decode cid", "cid", cid2, "error", err)
		return false
	}
	return c1.Hash().String() == c2.Hash().String()
}
