package generator

var (
	Planner = AgentSpec{
		Key:  "planner",
		Role: "Content Planner",
		Goal: "Plan engaging and factually accurate content on the given topic",
		Backstory: "You're responsible for analyzing the transcripts to extract key themes, challenges, " +
			"and opportunities discussed by industry leaders. Categorize the insights into major " +
			"sections, such as Industry Trends, Technological Impacts, Regulatory Considerations, and Future Outlook. " +
			"Use participant quotes strategically to add credibility and depth, ensuring you include specific examples " +
			"from relevant companies where applicable. " +
			"Ensure the report reads naturally and has the polished " +
			"feel of a human-written document, with varied sentence structures, a professional tone, and engaging, nuanced language.",
	}

	Writer = AgentSpec{
		Key:  "writer",
		Role: "Content Writer",
		Goal: "Write insightful and factually accurate research report about the given topic",
		Backstory: "Your task is to write a comprehensive and engaging research article based on the content " +
			"plan provided by the Content Planner. Integrate specific quotes from participants to support " +
			"key arguments and provide a balanced view of the opportunities and challenges discussed. " +
			"Use evidence-based analysis and maintain a formal yet engaging tone. Structure the content " +
			"thematically, addressing each major point with supporting data, expert opinions, and specific " +
			"examples. Highlight knowledge gaps and propose strategies for addressing them, ensuring the content " +
			"is actionable. Write in a way that feels human and natural, as though crafted by a seasoned technical " +
			"writer. Avoid robotic language and ensure the narrative is engaging, relatable, and enriched with " +
			"cross-references that connect different sections of the report for a cohesive flow. " +
			"End the article with a final 'Conclusion' section, which summarizes key insights without adding further suggestions or recommendations.",
	}

	Editor = AgentSpec{
		Key:  "editor",
		Role: "Editor",
		Goal: "Edit a given research article to align with the writing style of the organization",
		Backstory: "Your role is to refine the research article drafted by the Content Writer. Ensure the content " +
			"follows journalistic best practices, maintains a formal and professional tone, and is well-structured. " +
			"Check for balanced viewpoints and make sure that participant quotes are used effectively. Avoid " +
			"controversial statements unless necessary, and ensure the report addresses both benefits and risks. " +
			"Focus on coherence, readability, and the logical flow of ideas. Make sure there is no content or " +
			"additional sections following the Conclusion. The Conclusion should be the final part of the report, " +
			"summarizing key insights without adding any further recommendations or suggestions.",
	}
)

// ResearchTasks returns the plan → write → edit sequence.
func ResearchTasks() []TaskSpec {
	return []TaskSpec{
		{
			Name: "plan",
			Description: "Analyze the transcripts to extract major themes and plan the content structure. Identify key challenges, " +
				"opportunities, and knowledge gaps, and suggest where to include participant quotes. Recommend specific case studies, " +
				"examples, or statistics that would enrich the report.",
			ExpectedOutput: "A detailed content outline with categorized themes, key insights, strategic use of quotes, and recommendations " +
				"for case studies",
			Agent: Planner,
		},
		{
			Name: "write",
			Description: "Write a research article based on the content plan, integrating participant quotes, evidence-based analysis, specific examples, " +
				"and a balanced discussion of opportunities and risks. Ensure the content is engaging, relatable, and structured to connect different themes. " +
				"End the article with a final 'Conclusion' section, which summarizes the report without adding further suggestions or recommendations.",
			ExpectedOutput: "A well-written and insightful research article that follows the content plan and addresses all major themes comprehensively, " +
				"with humanized language and cross-references. Ensure there is no content after the Conclusion section.",
			Agent: Writer,
		},
		{
			Name: "edit",
			Description: "Review and edit the research article to ensure coherence, proper use of quotes, balanced viewpoints, and adherence to journalistic standards. " +
				"Make sure that cross-references are present and that the article ends with a Conclusion section only, with no additional recommendations or suggestions afterward.",
			ExpectedOutput: "A polished and professional research article that is ready for publication.",
			Agent:          Editor,
		},
	}
}
