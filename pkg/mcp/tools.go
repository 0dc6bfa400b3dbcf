package mcp

import "github.com/mark3labs/mcp-go/mcp"

func transformSourceTool() mcp.Tool {
	return mcp.NewTool("transform_source",
		mcp.WithDescription("Apply conditional-compilation directives (#ifdef/#ifndef/#endif) to source text for a target platform and return the rewritten code"),
		mcp.WithString("code", mcp.Required(),
			mcp.Description("Source text to transform")),
		mcp.WithString("id",
			mcp.Description("File id or path; decides whether the stylesheet pass runs (e.g. widget.scss, widget.vue?vue&type=style)")),
		mcp.WithString("platform",
			mcp.Description("Target platform override, e.g. h5, mp-weixin, app-plus; defaults to the server's configured platform")),
	)
}

func listDirectivesTool() mcp.Tool {
	return mcp.NewTool("list_directives",
		mcp.WithDescription("Inventory the directive blocks in source text: kind, platform expression, encoding, line, and whether the block is nested (and would be truncated)"),
		mcp.WithString("code", mcp.Required(),
			mcp.Description("Source text to scan")),
		mcp.WithString("id",
			mcp.Description("File id reported back in each record")),
	)
}

func evaluateConditionTool() mcp.Tool {
	return mcp.NewTool("evaluate_condition",
		mcp.WithDescription("Evaluate a platform expression (tokens combined with || or &&, optionally !-negated) against a target platform"),
		mcp.WithString("expression", mcp.Required(),
			mcp.Description("Platform expression, e.g. H5||APP-PLUS or !MP-WEIXIN")),
		mcp.WithString("platform",
			mcp.Description("Target platform; defaults to the server's configured platform")),
		mcp.WithString("kind",
			mcp.Description("Directive kind, ifdef (default) or ifndef; flips the keep decision")),
	)
}

func listPlatformsTool() mcp.Tool {
	return mcp.NewTool("list_platforms",
		mcp.WithDescription("List the platform tokens the toolchain compiles to"),
	)
}
