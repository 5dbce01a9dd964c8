package model

// Status - 사용자에게 보이는 생성 시도 상태
type Status string

const (
	StatusInitial       Status = "INITIAL"
	StatusAPIKeyMissing Status = "API_KEY_MISSING"
	StatusReady         Status = "READY"
	StatusLoading       Status = "LOADING"
	StatusDone          Status = "DONE"
	StatusError         Status = "ERROR"
)

// Mode - 활성화된 생성 폼
type Mode string

const (
	ModeImage Mode = "Image"
	ModeVideo Mode = "Video"
)

// Valid - 알려진 모드인지 확인
func (m Mode) Valid() bool {
	return m == ModeImage || m == ModeVideo
}

// 폼에서 허용하는 비율/해상도 (config 구조체의 oneof 태그와 동일)
var (
	ImageAspectRatios = []string{"16:9", "9:16", "1:1", "4:3", "3:4"}
	VideoAspectRatios = []string{"16:9", "9:16"}
	VideoResolutions  = []string{"720p", "1080p"}
)

const (
	DefaultAspectRatio = "16:9"
	DefaultResolution  = "720p"
)

// ImageConfig - 이미지 생성 요청 입력
type ImageConfig struct {
	Prompt      string `json:"prompt" validate:"notblank"`
	AspectRatio string `json:"aspectRatio" validate:"oneof=16:9 9:16 1:1 4:3 3:4"`
}

// Validate - 프롬프트/비율 검증, 비율이 비어있으면 기본값 사용
func (c *ImageConfig) Validate() error {
	if c.AspectRatio == "" {
		c.AspectRatio = DefaultAspectRatio
	}
	return validateStruct(c)
}

// VideoConfig - 비디오 생성 요청 입력
type VideoConfig struct {
	Prompt      string `json:"prompt" validate:"notblank"`
	AspectRatio string `json:"aspectRatio" validate:"oneof=16:9 9:16"`
	Resolution  string `json:"resolution" validate:"oneof=720p 1080p"`
}

// Validate - 프롬프트/비율/해상도 검증, 빈 값은 기본값으로 채움
func (c *VideoConfig) Validate() error {
	if c.AspectRatio == "" {
		c.AspectRatio = DefaultAspectRatio
	}
	if c.Resolution == "" {
		c.Resolution = DefaultResolution
	}
	return validateStruct(c)
}

// AssetKind - 생성 결과 종류
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// ResultAsset - 완료된 시도의 결과
// 이미지는 data URI, 비디오는 /assets/{id}
type ResultAsset struct {
	Kind     AssetKind `json:"kind"`
	URI      string    `json:"uri"`
	MIMEType string    `json:"mimeType"`
	AssetID  string    `json:"assetId,omitempty"` // 저장소에 보관된 경우에만
	FileName string    `json:"fileName"`
}

const (
	ImageFileName = "anime-image.jpeg"
	VideoFileName = "anime-video.mp4"
)
