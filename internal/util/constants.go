package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
)

// Participant cookie names. The proof cookie carries "<sessionID>:<token>";
// the anonymous id cookie is scoped per evaluation.
const (
	ParticipantCookie       = "ft_participant"
	AnonymousCookiePrefix   = "ft_pid_"
	ParticipantCookieMaxAge = 60 * 60 * 24 * 30
	AnonymousCookieMaxAge   = 60 * 60 * 24 * 180
)
