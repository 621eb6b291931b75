// pkg/shared/constants.go

package shared

const (
	WipeID = "wipe"

	WipeLogDir  = "/var/log/wipe/"
	WipeLogs    = WipeLogDir + "wipe.log"
	WipeLogsPWD = "./wipe.log"
)

const (
	// Permission modes (in octal)
	FilePermOwnerRWX       = 0700
	FilePermStandard       = 0644
	FilePermOwnerReadWrite = 0600
)

const (
	DefaultReportDir = "reports"
	DefaultKeyDir    = "keys"

	PrivateKeyFile = "private.pem"
	PublicKeyFile  = "public.pem"

	ReportPrefix    = "report_"
	SignatureSuffix = ".sig"
	MetricsFile     = "wipe.prom"

	DefaultConfigName = "wipe"
	EnvPrefix         = "WIPE"

	// #nosec G101 - This is the name of an env var, not a credential
	KeyPassphraseEnv = "WIPE_KEY_PASSPHRASE"
)

const (
	DefaultHDDPasses = 3
	DefaultKeyBits   = 2048

	// ChunkSize is the I/O block used for overwrite passes and hashing.
	ChunkSize = 4 * 1024 * 1024
)

const (
	ModeFile = "file"
)
