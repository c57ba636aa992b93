package prompts

// Default prompt templates for the generation pipeline. Placeholders of the
// form {name} are substituted from the accumulated generation context before
// the template is sent to the text backend. Every template can be overridden
// per deployment via configuration.

// MainTextTemplate produces the body of the devotional. It only sees the
// request-level context (theme and scriptural basis).
const MainTextTemplate = `You are a devotional writer. Write the main text of a guided devotional.

Theme: {theme}
Scriptural basis: {scripturalBasis}

Write 4 to 6 warm, pastoral paragraphs in the second person. Root every
reflection in the passage above. Do not include a title, headings, or any
closing blessing; only the body text.`

// PreparationTemplate produces a short settling-in introduction read before
// the main text.
const PreparationTemplate = `Write a short preparation for a guided devotional, 2 to 3 sentences
inviting the listener to quiet themselves and breathe. Theme: {theme}.
It will be read aloud immediately before this text:

{mainText}

Only output the preparation sentences.`

// FinalMessageTemplate produces the closing blessing read after the main text.
const FinalMessageTemplate = `Write a brief closing blessing, 2 to 3 sentences, for a devotional on
the theme "{theme}" based on {scripturalBasis}. It follows this text:

{mainText}

Only output the blessing.`

// TitleTemplate produces a short display title.
const TitleTemplate = `Suggest one short, evocative title (at most 6 words, no quotes) for a
devotional with this main text:

{mainText}`

// SubtitleTemplate produces a one-line subtitle.
const SubtitleTemplate = `Write a one-line subtitle (at most 12 words, no quotes) for a devotional
themed "{theme}" with this main text:

{mainText}`

// DescriptionTemplate produces the catalog description.
const DescriptionTemplate = `Write a 2 to 3 sentence catalog description inviting someone to listen to
a devotional about "{theme}" based on {scripturalBasis}. Main text:

{mainText}`

// ImagePromptTemplate produces the prompt handed to the image backend. This is
// a meta-template: the text model writes the visual prompt, the image template
// below wraps it.
const ImagePromptTemplate = `Describe, in one sentence of at most 30 words, a serene visual scene that
matches a devotional about "{theme}". Concrete imagery only, no text or
people. Main text for mood:

{mainText}`

// ImageGenerationTemplate wraps the generated image prompt before it is sent
// to the image synthesis backend.
const ImageGenerationTemplate = `{imagePrompt}. Soft natural light, muted warm palette, painterly,
peaceful, no text, no watermark.`
