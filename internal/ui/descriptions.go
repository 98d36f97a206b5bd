package ui

// Per-mode markdown shown next to the mode dropdown.
const (
	DescTxt2ImgFC = `**Foreground Conditioned**: relight an uploaded subject under a ` +
		`prompt-described lighting condition. Upload a subject; background removal ` +
		`mattes it automatically.`

	DescTxt2ImgFBC = `**Foreground & Background Conditioned**: relight an uploaded ` +
		`subject so it sits naturally in an uploaded background. Provide both images; ` +
		`the flipped source mirrors the background horizontally.`

	DescImg2ImgFC = `**Foreground Conditioned (img2img)**: the init image acts as the ` +
		`lightmap. Pick a directional preset to generate one, or draw/upload your own ` +
		`with Custom LightMap.`
)
