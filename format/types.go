package format

import "fmt"

type (
	CompressionType uint8
	BlocketteNumber int
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionGzip CompressionType = 0x5 // CompressionGzip represents gzip compression.
)

const (
	VolumeIdentifier    BlocketteNumber = 10 // VolumeIdentifier is the volume header blockette.
	StationIndex        BlocketteNumber = 11 // StationIndex lists the stations in the volume.
	DataFormat          BlocketteNumber = 30 // DataFormat is the data format dictionary blockette.
	StationIdentifier   BlocketteNumber = 50 // StationIdentifier opens a station epoch.
	StationComment      BlocketteNumber = 51 // StationComment is a station comment.
	ChannelIdentifier   BlocketteNumber = 52 // ChannelIdentifier opens a channel epoch.
	PolesZeros          BlocketteNumber = 53 // PolesZeros is a poles & zeros response stage.
	Coefficients        BlocketteNumber = 54 // Coefficients is a coefficients response stage.
	ResponseList        BlocketteNumber = 55 // ResponseList is a response list stage.
	GenericResponse     BlocketteNumber = 56 // GenericResponse is a generic response stage.
	Decimation          BlocketteNumber = 57 // Decimation describes stage decimation.
	Sensitivity         BlocketteNumber = 58 // Sensitivity is the stage gain / channel sensitivity.
	ChannelComment      BlocketteNumber = 59 // ChannelComment is a channel comment.
	FIRResponse         BlocketteNumber = 61 // FIRResponse is a FIR response stage.
	PolynomialResponse  BlocketteNumber = 62 // PolynomialResponse is a polynomial response stage.
	ResponseReference   BlocketteNumber = 60 // ResponseReference references dictionary responses.
	UnitsAbbreviation   BlocketteNumber = 34 // UnitsAbbreviation is a units dictionary entry.
	CommentDescription  BlocketteNumber = 31 // CommentDescription is a comment dictionary entry.
	GenericAbbreviation BlocketteNumber = 33 // GenericAbbreviation is a generic dictionary entry.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}

var blocketteNames = map[BlocketteNumber]string{
	VolumeIdentifier:    "Volume Identifier",
	StationIndex:        "Volume Station Header Index",
	DataFormat:          "Data Format Dictionary",
	CommentDescription:  "Comment Description",
	GenericAbbreviation: "Generic Abbreviation",
	UnitsAbbreviation:   "Units Abbreviations",
	StationIdentifier:   "Station Identifier",
	StationComment:      "Station Comment",
	ChannelIdentifier:   "Channel Identifier",
	PolesZeros:          "Response (Poles & Zeros)",
	Coefficients:        "Response (Coefficients)",
	ResponseList:        "Response List",
	GenericResponse:     "Generic Response",
	Decimation:          "Decimation",
	Sensitivity:         "Channel Sensitivity/Gain",
	ChannelComment:      "Channel Comment",
	ResponseReference:   "Response Reference",
	FIRResponse:         "FIR Response",
	PolynomialResponse:  "Response (Polynomial)",
}

// String returns the blockette title, or "B<nnn>" for types without a known title.
func (b BlocketteNumber) String() string {
	if name, ok := blocketteNames[b]; ok {
		return name
	}

	return fmt.Sprintf("B%03d", int(b))
}
