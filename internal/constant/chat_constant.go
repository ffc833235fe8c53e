package constant

const (
	ChatMessageRoleSystem    = "system"
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	RecordTypeSession = "session"
	RecordTypeMessage = "message"

	// Placeholder name given to a session until the first exchange is summarized.
	DefaultSessionName = "New Chat"

	// Marker the clean pass emits when a chunk carries no usable content.
	// Chunks flagged with it are discarded before embedding.
	UnknownChunkMarker = "UNKNOWN"

	SummarizeSessionPrompt = `Summarize this prompt in one or two words to use as a label in a button on a web page.
Do not use any punctuation.`

	// GroundedSearchPromptTemplate formats vector search results and the user
	// question into a grounded prompt. Args: joined search results, question.
	GroundedSearchPromptTemplate = `DOCUMENT:
%s

QUESTION:
%s

INSTRUCTIONS:
Answer the users QUESTION using the DOCUMENT text above.
You must answer in the same language of QUESTION.
Keep your answer ground in the facts of the DOCUMENT.
If the DOCUMENT does not contain the facts to answer the QUESTION, say the
answer is not present and ask the user to reformulate the question in a more
detailed way.`

	// CleanChunkPromptTemplate asks the model to normalize an extracted text
	// batch before it is embedded. Arg: source document name.
	CleanChunkPromptTemplate = `You receive a fragment of text extracted from the document "%s".
Rewrite it as clean, well formed sentences, preserving every fact.
Remove page headers, footers, page numbers and layout noise.
If the fragment contains no usable content, answer with the single word UNKNOWN.`
)
