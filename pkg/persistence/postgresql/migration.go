package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create drafts table
			CREATE TABLE drafts (
				id UUID PRIMARY KEY,
				module_code VARCHAR(50) NOT NULL,
				client_id VARCHAR(255),
				current_step INT NOT NULL DEFAULT 1 CHECK (current_step >= 1),
				data JSONB NOT NULL DEFAULT '{}',
				archived_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_drafts_module_code ON drafts(module_code);
			CREATE INDEX idx_drafts_client_id ON drafts(client_id);
			CREATE INDEX idx_drafts_archived_at ON drafts(archived_at);
			CREATE INDEX idx_drafts_created_at ON drafts(created_at);

			-- The duplicate probe always narrows on (module_code, client_id, archived_at IS NULL)
			CREATE INDEX idx_drafts_active_per_client
				ON drafts(module_code, client_id) WHERE archived_at IS NULL;
		`,
		2: `
			-- Create folders table (finalized case files)
			CREATE TABLE folders (
				id UUID PRIMARY KEY,
				draft_id UUID NOT NULL REFERENCES drafts(id),
				module_code VARCHAR(50) NOT NULL,
				client_id VARCHAR(255),
				reference VARCHAR(100) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_folders_client_id ON folders(client_id);
			CREATE INDEX idx_folders_draft_id ON folders(draft_id);
		`,
	}
}
