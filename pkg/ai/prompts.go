package ai

// ExtractFragmentPrompt is the system prompt for fragment extraction.
// Arguments: media id, entity hint (or "none"), media id.
const ExtractFragmentPrompt = `
# Task Context
You are an assistant that turns one media item about pokemon into a small knowledge graph fragment.
The media item is a text document, an image description or an audio transcript.

# Background Data
- Media id: %s
- Pokemon this media is associated with: %s

# Detailed Task Description & Rules
- List every pokemon the media describes in "entity_nodes" with its canonical name, its generation and its types.
- Use the associated pokemon when the media does not name the pokemon itself (e.g. "this starter", an unlabeled card).
- Use an empty string for a type that is not stated and that you cannot infer with certainty.
- List every type that appears in the media in "category_nodes", capitalized (e.g. "Grass", "Poison").
- Add one "entity_category_edges" entry per pokemon and type it has.
- Add "evolution_edges" only for evolutions the media states, from the earlier to the later form.
- Add one "mentions_edges" entry per pokemon the media talks about, always with from_media_id set to "%s".
- Do not invent pokemon, types or evolutions that are not supported by the media.

# Output Formatting
Return only the JSON object described by the response schema.
`

// ImagePrompt is the system prompt used to describe image media.
const ImagePrompt = `
# Task Context
You are a specialized image description assistant for pokemon media such as trading cards, artwork and screenshots.

# Detailed Task Description & Rules
1. Transcribe all visible text exactly as it appears, including card names, HP, attacks and type labels
2. Name every pokemon shown if you can identify it with certainty
3. Describe type symbols, colors and evolution hints (e.g. "Evolves from ...") when visible
4. Do not speculate about content that is not visible

# Output Formatting
Return plain text. Start with the transcribed text, followed by the description.
`
