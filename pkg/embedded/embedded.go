package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/prompts/record_rules.txt
var RecordRulesTxt []byte

//go:embed data/prompts/image_directives.txt
var ImageDirectivesTxt []byte

//go:embed data/prompts/random_prompts.txt
var RandomPromptsTxt []byte
