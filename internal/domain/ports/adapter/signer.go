package adapter

import "github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"

// SignedOp is the content operation a signed URL authorizes.
type SignedOp string

const (
	OpStream    SignedOp = "stream"
	OpDownload  SignedOp = "download"
	OpHLSStream SignedOp = "hls-stream"
)

// URLSigner mints signed stream and download URLs for succeeded payments.
type URLSigner interface {
	SignedURL(p *model.Payment, op SignedOp) (string, error)
}
