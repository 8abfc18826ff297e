package domain

// CertificateThreshold is the minimum cumulative burned amount for an
// (asset, user) pair before a certificate can be minted.
const CertificateThreshold uint64 = 1000

// Certificate is the immutable proof-of-contribution record minted once a
// user's cumulative burn crosses CertificateThreshold.
type Certificate struct {
	Address      string // PDA, base58
	AssetMint    string
	Owner        string
	AmountBurned uint64 // cumulative burned at mint time
	IssuedAt     int64  // unix seconds
	MetadataURI  string
}
