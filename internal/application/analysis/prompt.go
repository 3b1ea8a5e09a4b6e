package analysis

// Instruction frames every case as a request to an academic chest radiologist.
const Instruction = "You are a professor of radiology at a university hospital. " +
	"Based on the following input, write a professional radiology report, " +
	"the diagnostic reasoning behind it, and your recommendations."

// BuildPrompt appends the raw case text to the fixed instruction.
func BuildPrompt(userInput string) string {
	return Instruction + "\n\n[Input Data]\n" + userInput
}
