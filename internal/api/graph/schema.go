package graph

// schemaString GraphQL Schema定义
const schemaString = `
type Candidate {
  key: String!
  id: String!
  name: String!
  visi: String!
  misi: String!
  voteCount: String!
  lastUpdated: String!
  transactionHash: String!
  blockNumber: String!
}

type Voter {
  key: String!
  id: String!
  name: String!
  email: String!
  hasVoted: String!
  lastUpdated: String!
  transactionHash: String!
  blockNumber: String!
}

type VoteTally {
  key: String!
  candidateId: String!
  count: String!
  timestamp: String!
  transactionHash: String!
  blockNumber: String!
}

type CandidateList {
  view: String!
  query: String!
  error: String
  fetchedAt: String
  rows: [Candidate!]!
}

type VoterList {
  view: String!
  query: String!
  error: String
  fetchedAt: String
  rows: [Voter!]!
}

type VoteTallyList {
  view: String!
  query: String!
  error: String
  fetchedAt: String
  rows: [VoteTally!]!
}

type VoteShare {
  candidateId: String!
  name: String!
  votes: String!
  percent: Float!
}

type ArchiveStat {
  kind: String!
  count: Int!
}

type MutationResult {
  success: Boolean!
  message: String!
}

type LoginResult {
  token: String!
  userId: String!
}

input CandidateInput {
  id: String!
  name: String!
  visi: String!
  misi: String!
}

input VoterInput {
  id: String!
  name: String!
  email: String!
  password: String
}

input VoteInput {
  voterId: String!
  candidateId: String!
  password: String!
}

type Query {
  # view: current 或 history，默认 current
  candidates(view: String, query: String): CandidateList!
  voters(view: String, query: String): VoterList!
  votes(view: String, query: String): VoteTallyList!

  # 当前得票占比
  voteShares: [VoteShare!]!

  voteStatus(voterId: String!): Boolean!
  voter(id: String!): Voter!

  # 已归档的历史条数
  archiveStats: [ArchiveStat!]!
}

type Mutation {
  # kind: candidate / voter / vote / all
  refresh(kind: String!): MutationResult!

  addCandidate(input: CandidateInput!): MutationResult!
  updateCandidate(id: String!, input: CandidateInput!): MutationResult!
  deleteCandidate(id: String!): MutationResult!

  addVoter(input: VoterInput!): MutationResult!
  updateVoter(id: String!, input: VoterInput!): MutationResult!
  deleteVoter(id: String!): MutationResult!

  vote(input: VoteInput!): MutationResult!
  login(voterId: String!, password: String!): LoginResult!
}

schema {
  query: Query
  mutation: Mutation
}
`
